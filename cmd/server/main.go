package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xtding233/junkroom/internal/catalog"
	"github.com/xtding233/junkroom/internal/clock"
	"github.com/xtding233/junkroom/internal/ledger"
	"github.com/xtding233/junkroom/internal/rng"
	"github.com/xtding233/junkroom/internal/session"
	"github.com/xtding233/junkroom/internal/spawn"
	"github.com/xtding233/junkroom/internal/store"
	"github.com/xtding233/junkroom/internal/tuning"
)

type options struct {
	addr        string
	catalogPath string
	configDir   string
	storeKind   string
	savePath    string
	profile     string
	logLevel    string
	reload      time.Duration
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnvOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.addr, "addr", envOr("JUNKROOM_ADDR", ":8080"), "HTTP listen address")
	flag.StringVar(&o.catalogPath, "catalog", envOr("JUNKROOM_CATALOG", ""), "catalog YAML (built-in catalog when empty)")
	flag.StringVar(&o.configDir, "config", envOr("JUNKROOM_CONFIG", ""), "base dir holding tuning/default.yaml (stock tuning when empty)")
	flag.StringVar(&o.storeKind, "store", envOr("JUNKROOM_STORE", "file"), "save backend: file or sqlite")
	flag.StringVar(&o.savePath, "save", envOr("JUNKROOM_SAVE", "junkroom-save.json.zst"), "save file or sqlite db path")
	flag.StringVar(&o.profile, "profile", envOr("JUNKROOM_PROFILE", "default"), "player profile (sqlite only)")
	flag.StringVar(&o.logLevel, "log-level", envOr("JUNKROOM_LOG_LEVEL", "info"), "debug, info, warn or error")
	flag.DurationVar(&o.reload, "reload", durationEnvOr("JUNKROOM_RELOAD", 2*time.Second), "tuning reload poll interval")
	flag.Parse()
	return o
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lv}))
}

func main() {
	o := parseFlags()
	logger := newLogger(os.Stderr, o.logLevel)
	slog.SetDefault(logger)

	if err := run(o, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func openStore(o options) (store.Store, func() error, error) {
	switch o.storeKind {
	case "file":
		return store.NewFileStore(o.savePath), func() error { return nil }, nil
	case "sqlite":
		s, err := store.OpenSQLite(o.savePath, o.profile)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", o.storeKind)
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

// newServer wires the session and the websocket hub around a ledger.
func newServer(cat *catalog.Catalog, led *ledger.Ledger, tun tuning.Resolver, sched clock.Scheduler, logger *slog.Logger) (*server, error) {
	h := newHub(logger)
	sess, err := session.New(session.Deps{
		Catalog:   cat,
		Ledger:    led,
		Spawner:   spawn.New(rng.Default()),
		Scheduler: sched,
		Tuning:    tun,
		Logger:    logger,
		OnChange:  h.publishView,
	})
	if err != nil {
		return nil, err
	}
	// seed the hub so clients joining before the first change see a view
	h.publishView(sess.View())
	return &server{cat: cat, ledger: led, sess: sess, tuning: tun, hub: h, log: logger}, nil
}

func run(o options, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := loadCatalog(o.catalogPath)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	st, closeStore, err := openStore(o)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer closeStore()

	persister := store.NewPersister(st, logger)
	led := ledger.New(persister.Load(ctx), persister.Submit)

	var tun tuning.Resolver = tuning.Static(tuning.Defaults())
	var loader *tuning.Loader
	if o.configDir != "" {
		loader = tuning.NewLoader(o.configDir)
		tun = loader
	}

	srv, err := newServer(cat, led, tun, clock.Real(), logger)
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Addr:              o.addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return persister.Run(ctx) })
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case f := <-srv.sess.Feedback():
				srv.hub.publish("feedback", f)
			}
		}
	})
	if loader != nil {
		paths := []string{loader.Paths().DefaultPath()}
		for _, r := range cat.Rooms() {
			paths = append(paths, loader.Paths().RoomPath(r.ID))
		}
		w := tuning.NewFileWatcher(paths, o.reload, func(path string) {
			loader.Invalidate()
			logger.Info("tuning reloaded", "path", path)
		})
		g.Go(func() error { return w.Run(ctx) })
	}
	g.Go(func() error {
		logger.Info("listening", "addr", o.addr, "catalog", cat.Version(), "items", cat.ItemCount(), "store", o.storeKind)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown initiated", "clients", srv.hub.count())
		srv.sess.Exit()
		srv.hub.closeAll()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/xtding233/junkroom/internal/catalog"
	"github.com/xtding233/junkroom/internal/ledger"
	"github.com/xtding233/junkroom/internal/merge"
	"github.com/xtding233/junkroom/internal/session"
	"github.com/xtding233/junkroom/internal/sim"
	"github.com/xtding233/junkroom/internal/tuning"
)

const maxSimTrials = 10_000

type errResp struct {
	Err string `json:"err"`
}

type roomResp struct {
	catalog.Room
	Unlocked bool `json:"unlocked"`
}

type extractResp struct {
	Extracted bool         `json:"extracted"`
	View      session.View `json:"view"`
}

type slotResp struct {
	Cleared bool         `json:"cleared"`
	View    session.View `json:"view"`
}

type collectionResp struct {
	ledger.CollectionView
	Coins int          `json:"coins"`
	Stats ledger.Stats `json:"stats"`
}

// server owns the single local session and the shared ledger.
type server struct {
	cat    *catalog.Catalog
	ledger *ledger.Ledger
	sess   *session.Session
	tuning tuning.Resolver
	hub    *hub
	log    *slog.Logger
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rooms", s.handleRooms)
	mux.HandleFunc("POST /rooms/unlock", s.handleUnlock)
	mux.HandleFunc("GET /player", s.handlePlayer)
	mux.HandleFunc("GET /collection", s.handleCollection)
	mux.HandleFunc("POST /session/start", s.handleStart)
	mux.HandleFunc("GET /session", s.handleView)
	mux.HandleFunc("POST /session/extract", s.handleExtract)
	mux.HandleFunc("POST /session/slot", s.handleClearSlot)
	mux.HandleFunc("POST /session/assist/accept", s.handleAcceptAssist)
	mux.HandleFunc("POST /session/assist/decline", s.handleDeclineAssist)
	mux.HandleFunc("POST /session/restart", s.handleRestart)
	mux.HandleFunc("POST /session/exit", s.handleExit)
	mux.HandleFunc("GET /simulate", s.handleSimulate)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

func parseInt(r *http.Request, key string) (int, bool, string) {
	str := r.URL.Query().Get(key)
	if str == "" {
		return 0, false, ""
	}
	v, err := strconv.Atoi(str)
	if err != nil {
		return 0, false, "invalid " + key
	}
	return v, true, ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *server) writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "err", err)
	}
	writeJSON(w, status, errResp{Err: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrRoomNotFound), errors.Is(err, catalog.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientCoins),
		errors.Is(err, session.ErrNotActive),
		errors.Is(err, session.ErrNoAssistOffer):
		return http.StatusConflict
	case errors.Is(err, sim.ErrInvalidTrials):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *server) handleRooms(w http.ResponseWriter, r *http.Request) {
	p := s.ledger.Snapshot()
	rooms := s.cat.Rooms()
	resp := make([]roomResp, 0, len(rooms))
	for _, room := range rooms {
		resp = append(resp, roomResp{Room: room, Unlocked: unlocked(p, room)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	room, err := s.cat.Room(r.URL.Query().Get("room"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if unlocked(s.ledger.Snapshot(), room) {
		writeJSON(w, http.StatusOK, s.ledger.Snapshot())
		return
	}
	p, err := s.ledger.UnlockRoom(room)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.log.Info("room unlocked", "room", room.ID, "coins", p.Coins)
	writeJSON(w, http.StatusOK, p)
}

// unlocked also honors rooms the catalog marks as open from the start.
func unlocked(p ledger.PlayerData, room catalog.Room) bool {
	return room.StartsUnlocked || p.RoomUnlocked(room.ID)
}

func (s *server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Snapshot())
}

func (s *server) handleCollection(w http.ResponseWriter, r *http.Request) {
	p := s.ledger.Snapshot()
	writeJSON(w, http.StatusOK, collectionResp{
		CollectionView: ledger.Collection(p, s.cat),
		Coins:          p.Coins,
		Stats:          p.Stats,
	})
}

func (s *server) handleStart(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("room")
	if id == "" {
		http.Error(w, "missing param room", http.StatusBadRequest)
		return
	}
	room, err := s.cat.Room(id)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if !unlocked(s.ledger.Snapshot(), room) {
		writeJSON(w, http.StatusForbidden, errResp{Err: "room locked: " + id})
		return
	}
	if err := s.sess.Initialize(id); err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.View())
}

func (s *server) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.View())
}

func (s *server) handleExtract(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing param id", http.StatusBadRequest)
		return
	}
	ok := s.sess.Extract(id)
	writeJSON(w, http.StatusOK, extractResp{Extracted: ok, View: s.sess.View()})
}

func (s *server) handleClearSlot(w http.ResponseWriter, r *http.Request) {
	idx, ok, msg := parseInt(r, "index")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if !ok || idx < 0 || idx >= merge.SlotCount {
		http.Error(w, "missing/invalid param index", http.StatusBadRequest)
		return
	}
	cleared := s.sess.ClearSlot(idx)
	writeJSON(w, http.StatusOK, slotResp{Cleared: cleared, View: s.sess.View()})
}

func (s *server) handleAcceptAssist(w http.ResponseWriter, r *http.Request) {
	s.intent(w, s.sess.AcceptAssist)
}

func (s *server) handleDeclineAssist(w http.ResponseWriter, r *http.Request) {
	s.intent(w, s.sess.DeclineAssist)
}

func (s *server) handleRestart(w http.ResponseWriter, r *http.Request) {
	s.intent(w, s.sess.Restart)
}

func (s *server) handleExit(w http.ResponseWriter, r *http.Request) {
	s.sess.Exit()
	writeJSON(w, http.StatusOK, s.sess.View())
}

// intent runs a state-dependent session operation and answers with the view.
func (s *server) intent(w http.ResponseWriter, op func() error) {
	if err := op(); err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.View())
}

func (s *server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	if room == "" {
		http.Error(w, "missing param room", http.StatusBadRequest)
		return
	}
	trials, ok, msg := parseInt(r, "trials")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if !ok {
		trials = 1000
	}
	if trials > maxSimTrials {
		http.Error(w, "trials too large", http.StatusBadRequest)
		return
	}
	seed, _, msg := parseInt(r, "seed")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	assists, ok, msg := parseInt(r, "assists")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if !ok {
		assists = 3
	}

	runner := sim.Runner{Catalog: s.cat, Tuning: s.tuning}
	rep, err := runner.RunMonteCarlo(r.Context(), sim.SimParams{
		Room:       room,
		Trials:     trials,
		Seed:       uint64(seed),
		MaxAssists: assists,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.hub.serve(w, r)
}

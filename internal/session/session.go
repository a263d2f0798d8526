// Package session runs one play-through of a room: spawning, extraction into
// the merge slots, merge resolution, win/fail detection and the assist path.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xtding233/junkroom/internal/catalog"
	"github.com/xtding233/junkroom/internal/clock"
	"github.com/xtding233/junkroom/internal/ledger"
	"github.com/xtding233/junkroom/internal/merge"
	"github.com/xtding233/junkroom/internal/spawn"
	"github.com/xtding233/junkroom/internal/tuning"
)

const feedbackBuffer = 32

// Catalog is the read-only lookup a session needs.
type Catalog interface {
	Room(id string) (catalog.Room, error)
	Item(id string) (catalog.Item, error)
	ItemCount() int
}

// Deps are the collaborators of a session. Catalog and Ledger are required.
type Deps struct {
	Catalog   Catalog
	Ledger    *ledger.Ledger
	Spawner   *spawn.Spawner
	Scheduler clock.Scheduler
	Tuning    tuning.Resolver
	Logger    *slog.Logger
	Now       func() time.Time

	// OnChange receives a fresh View after every state change, with the
	// session lock held. It must not block or call back into the session.
	OnChange func(View)
}

// Session is safe for concurrent use; every intent and every merge timer
// runs to completion under one lock, in arrival order.
type Session struct {
	mu   sync.Mutex
	deps Deps
	log  *slog.Logger

	id     string
	room   catalog.Room
	params tuning.Params
	state  State
	score  int
	target int
	slots  merge.Slots
	items  []spawn.PlacedItem
	assist bool
	err    error

	resolver *merge.Resolver
	feedback chan Feedback
}

func New(d Deps) (*Session, error) {
	if d.Catalog == nil {
		return nil, errors.New("session: nil catalog")
	}
	if d.Ledger == nil {
		return nil, errors.New("session: nil ledger")
	}
	if d.Spawner == nil {
		d.Spawner = spawn.New(nil)
	}
	if d.Scheduler == nil {
		d.Scheduler = clock.Real()
	}
	if d.Tuning == nil {
		d.Tuning = tuning.Static(tuning.Defaults())
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Session{
		deps:     d,
		log:      d.Logger.With("component", "session"),
		state:    Idle,
		feedback: make(chan Feedback, feedbackBuffer),
	}, nil
}

// Feedback delivers visual cues. Cues are dropped when nobody drains it.
func (s *Session) Feedback() <-chan Feedback { return s.feedback }

// Initialize starts a fresh play-through of roomID. A catalog miss returns
// a *catalog.DataIntegrityError and leaves the session idle.
func (s *Session) Initialize(roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initLocked(roomID)
}

// Restart replays the current room with a new spawn.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room.ID == "" {
		return ErrNotActive
	}
	return s.initLocked(s.room.ID)
}

func (s *Session) initLocked(roomID string) error {
	if s.resolver != nil {
		s.resolver.Cancel()
		s.resolver = nil
	}
	s.reset()

	room, err := s.loadRoom(roomID)
	if err != nil {
		s.room = catalog.Room{}
		s.err = err
		s.log.Warn("room unavailable", "room", roomID, "err", err)
		s.notify()
		return err
	}

	_, params, err := s.deps.Tuning.Resolve(room.ID)
	if err != nil {
		s.log.Warn("tuning rejected, using defaults", "room", room.ID, "err", err)
		params = tuning.Defaults()
	}

	items, err := s.deps.Spawner.Initial(room, counts(params))
	if err != nil {
		s.room = catalog.Room{}
		s.err = err
		s.notify()
		return fmt.Errorf("spawn %s: %w", room.ID, err)
	}

	s.id = uuid.NewString()
	s.room = room
	s.params = params
	s.target = room.ClearTarget
	s.items = items
	s.state = Playing
	s.resolver = merge.NewResolver(s.deps.Catalog, s.deps.Scheduler, s.serialize, params.MergeDelay, s.onMerge)

	s.log.Info("session started", "session", s.id, "room", room.ID, "items", len(items), "target", s.target, "tuning", params.Version)
	s.notify()
	return nil
}

// loadRoom resolves the room and every item its pool names.
func (s *Session) loadRoom(roomID string) (catalog.Room, error) {
	room, err := s.deps.Catalog.Room(roomID)
	if err != nil {
		return catalog.Room{}, err
	}
	for _, id := range room.ItemPool {
		if _, err := s.deps.Catalog.Item(id); err != nil {
			return catalog.Room{}, err
		}
	}
	return room, nil
}

func (s *Session) reset() {
	s.id = ""
	s.state = Idle
	s.score = 0
	s.target = 0
	s.slots = merge.Slots{}
	s.items = nil
	s.assist = false
	s.err = nil
}

// Extract pulls an item out of the room. Unknown or already extracted ids
// are stale clicks and do nothing; so does any click outside Playing.
func (s *Session) Extract(instanceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Playing {
		return false
	}
	i := slices.IndexFunc(s.items, func(it spawn.PlacedItem) bool { return it.InstanceID == instanceID })
	if i < 0 {
		return false
	}
	item := s.items[i]
	s.items = slices.Delete(slices.Clone(s.items), i, i+1)

	// Collected even when the slots are full.
	if _, err := s.deps.Ledger.RecordCollected(item.ItemID); err != nil {
		s.log.Error("record collected", "session", s.id, "item", item.ItemID, "err", err)
	}

	if slot := s.slots.FirstEmpty(); slot >= 0 {
		s.slots[slot] = item.ItemID
		s.score += s.params.ExtractScore
		s.emit(FeedbackExtract, fmt.Sprintf("+%d", s.params.ExtractScore), item.Position.X, item.Position.Y)
		s.evaluate()
		s.completionCheck()
	} else {
		s.log.Debug("slots full, item discarded", "session", s.id, "item", item.ItemID)
		s.emit(FeedbackDiscard, "slots full", item.Position.X, item.Position.Y)
	}
	s.exhaustionCheck()
	s.notify()
	return true
}

// ClearSlot empties slot index. index must be in [0, merge.SlotCount).
func (s *Session) ClearSlot(index int) bool {
	if index < 0 || index >= merge.SlotCount {
		panic(fmt.Sprintf("session: slot index %d out of range", index))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Playing || s.slots[index] == "" {
		return false
	}
	s.slots[index] = ""
	s.evaluate()
	s.notify()
	return true
}

// AcceptAssist takes the assist offer: more items and bonus coins.
func (s *Session) AcceptAssist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Playing {
		return ErrNotActive
	}
	if !s.assist {
		return ErrNoAssistOffer
	}
	batch, err := s.deps.Spawner.Assist(s.room, counts(s.params))
	if err != nil {
		return fmt.Errorf("assist spawn: %w", err)
	}
	s.items = append(slices.Clone(s.items), batch...)
	if _, err := s.deps.Ledger.AddCoins(s.params.AssistCoins); err != nil {
		s.log.Error("assist coins", "session", s.id, "err", err)
	}
	s.assist = false
	s.emit(FeedbackAssist, fmt.Sprintf("+%d items +%d coins", len(batch), s.params.AssistCoins), 50, 50)
	s.log.Info("assist accepted", "session", s.id, "room", s.room.ID, "items", len(batch))
	s.notify()
	return nil
}

// DeclineAssist gives up the play-through.
func (s *Session) DeclineAssist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Playing {
		return ErrNotActive
	}
	if !s.assist {
		return ErrNoAssistOffer
	}
	s.assist = false
	s.state = Failed
	s.log.Info("session failed", "session", s.id, "room", s.room.ID, "score", s.score, "target", s.target)
	s.notify()
	return nil
}

// Exit leaves the room. A pending merge is dropped.
func (s *Session) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolver != nil {
		s.resolver.Cancel()
		s.resolver = nil
	}
	if s.id != "" {
		s.log.Info("session exited", "session", s.id, "room", s.room.ID, "state", s.state)
	}
	s.reset()
	s.room = catalog.Room{}
	s.notify()
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	v := View{
		SessionID:     s.id,
		RoomID:        s.room.ID,
		State:         s.state,
		Score:         s.score,
		Target:        s.target,
		Slots:         s.slots,
		Items:         slices.Clone(s.items),
		AssistOffered: s.assist,
	}
	if v.Items == nil {
		v.Items = []spawn.PlacedItem{}
	}
	if s.resolver != nil {
		if out, ok := s.resolver.Pending(); ok {
			v.PendingMerge = &out
		}
	}
	if s.err != nil {
		v.Err = s.err.Error()
	}
	return v
}

// serialize is the merge executor: timer callbacks re-enter through the
// session lock.
func (s *Session) serialize(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f()
}

func (s *Session) evaluate() {
	if err := s.resolver.Evaluate(s.slots); err != nil {
		s.log.Error("merge check", "session", s.id, "slots", s.slots, "err", err)
	}
}

// onMerge runs under the session lock once a scheduled merge fires. Merges
// still resolve after the room is completed.
func (s *Session) onMerge(out merge.Outcome) {
	s.slots = merge.Slots{}
	if _, err := s.deps.Ledger.RecordCollected(out.To); err != nil {
		s.log.Error("record merged", "session", s.id, "item", out.To, "err", err)
	}
	if _, err := s.deps.Ledger.AddCoins(s.params.MergeBonus); err != nil {
		s.log.Error("merge coins", "session", s.id, "err", err)
	}
	s.score += s.params.MergeScore
	s.log.Info("merge resolved", "session", s.id, "from", out.From, "to", out.To, "score", s.score)
	s.emit(FeedbackMerge, fmt.Sprintf("merged %s! +%d coins", out.To, s.params.MergeBonus), 50, 90)
	s.completionCheck()
	s.notify()
}

// completionCheck runs after every score increase, before exhaustionCheck.
func (s *Session) completionCheck() {
	if s.state != Playing || s.score < s.target {
		return
	}
	s.state = Completed
	s.assist = false
	if _, err := s.deps.Ledger.CompleteRoom(s.room.CoinReward); err != nil {
		s.log.Error("room reward", "session", s.id, "err", err)
	}
	s.log.Info("session completed", "session", s.id, "room", s.room.ID, "score", s.score, "reward", s.room.CoinReward)
	s.emit(FeedbackComplete, fmt.Sprintf("room cleared! +%d coins", s.room.CoinReward), 50, 50)
}

func (s *Session) exhaustionCheck() {
	if s.state == Playing && len(s.items) == 0 && s.score < s.target {
		s.assist = true
	}
}

func (s *Session) emit(kind FeedbackKind, text string, x, y float64) {
	f := Feedback{Kind: kind, Text: text, X: x, Y: y, Expires: s.deps.Now().Add(s.params.FeedbackTTL)}
	select {
	case s.feedback <- f:
	default:
	}
}

func (s *Session) notify() {
	if s.deps.OnChange != nil {
		s.deps.OnChange(s.viewLocked())
	}
}

func counts(p tuning.Params) spawn.Counts {
	return spawn.Counts{
		InitialMin:    p.InitialMin,
		InitialMax:    p.InitialMax,
		AssistCount:   p.AssistCount,
		AssistZOffset: p.AssistZOffset,
	}
}

package session

import (
	"errors"
	"time"

	"github.com/xtding233/junkroom/internal/merge"
	"github.com/xtding233/junkroom/internal/spawn"
)

type State string

const (
	Idle      State = "idle" // no room loaded, or exited
	Playing   State = "playing"
	Completed State = "completed"
	Failed    State = "failed"
)

// Terminal reports whether the play-through is over.
func (s State) Terminal() bool { return s == Completed || s == Failed }

var (
	ErrNotActive     = errors.New("session not active")
	ErrNoAssistOffer = errors.New("no assist offer pending")
)

// View is what the presentation layer renders.
type View struct {
	SessionID     string             `json:"sessionId,omitempty"`
	RoomID        string             `json:"roomId,omitempty"`
	State         State              `json:"state"`
	Score         int                `json:"score"`
	Target        int                `json:"target"`
	Slots         merge.Slots        `json:"slots"`
	Items         []spawn.PlacedItem `json:"items"`
	AssistOffered bool               `json:"assistOffered"`
	PendingMerge  *merge.Outcome     `json:"pendingMerge,omitempty"`
	Err           string             `json:"error,omitempty"`
}

type FeedbackKind string

const (
	FeedbackExtract  FeedbackKind = "extract"
	FeedbackDiscard  FeedbackKind = "discard"
	FeedbackMerge    FeedbackKind = "merge"
	FeedbackComplete FeedbackKind = "complete"
	FeedbackAssist   FeedbackKind = "assist"
)

// Feedback is a fire-and-forget visual cue. It carries no game state and
// may be dropped.
type Feedback struct {
	Kind    FeedbackKind `json:"kind"`
	Text    string       `json:"text"`
	X       float64      `json:"x"`
	Y       float64      `json:"y"`
	Expires time.Time    `json:"expires"`
}

package playback

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNothingLoaded   = errors.New("no sample loaded")
	ErrUnsupportedType = errors.New("unsupported audio format: must be mp3 or wav")
	ErrReleased        = errors.New("player released")
)

// State is the loading/ended state of the player, independent of whether it should play.
type State string

const (
	StateIdle      State = "idle"
	StateBuffering State = "buffering"
	StateReady     State = "ready"
	StateEnded     State = "ended"
)

// Event is emitted on every player state change.
type Event struct {
	State         State
	PlayWhenReady bool
	Position      time.Duration
}

// Player plays one audio sample at a time.
type Player interface {
	// Load fetches and decodes the sample at locator, replacing whatever was loaded.
	Load(ctx context.Context, locator string) error
	Play() error
	Pause() error
	SeekToStart() error
	Stop()
	Release()
	Position() time.Duration
	State() State
	PlayWhenReady() bool
	// OnStateChange registers the listener for state changes. Only one listener is kept.
	OnStateChange(fn func(Event))
}

package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"classical-quiz-service/internal/logger"
)

// Action is a transport control a client or notification can trigger.
type Action string

const (
	ActionPlay           Action = "play"
	ActionPause          Action = "pause"
	ActionPlayPause      Action = "play_pause"
	ActionSkipToPrevious Action = "restart"
)

// SupportedActions are advertised with every playback state.
var SupportedActions = []Action{ActionPlay, ActionPause, ActionPlayPause, ActionSkipToPrevious}

// SessionState is the media-session view of the player.
type SessionState string

const (
	SessionNone    SessionState = "none"
	SessionPlaying SessionState = "playing"
	SessionPaused  SessionState = "paused"
	SessionStopped SessionState = "stopped"
)

// PlaybackState is what the session publishes to presenters and subscribers.
type PlaybackState struct {
	State    SessionState  `json:"state"`
	Position time.Duration `json:"position"`
	Actions  []Action      `json:"actions"`
}

// Presenter renders the playback state outside the app, e.g. as a system notification.
type Presenter interface {
	Show(state PlaybackState) error
	Cancel() error
}

// Session wraps a Player, exposes transport controls and publishes state changes.
type Session struct {
	player    Player
	presenter Presenter
	log       *logger.Logger

	mu          sync.RWMutex
	state       PlaybackState
	active      bool
	subscribers map[chan PlaybackState]struct{}
}

// NewSession activates a media session around player. presenter may be nil.
func NewSession(player Player, presenter Presenter, log *logger.Logger) *Session {
	s := &Session{
		player:      player,
		presenter:   presenter,
		log:         log.With("component", "media_session"),
		state:       PlaybackState{State: SessionNone, Actions: SupportedActions},
		active:      true,
		subscribers: make(map[chan PlaybackState]struct{}),
	}
	player.OnStateChange(s.onPlayerEvent)
	return s
}

// Load replaces the current sample and starts playing it as soon as it is ready.
func (s *Session) Load(ctx context.Context, locator string) error {
	if !s.isActive() {
		return ErrReleased
	}
	if err := s.player.Play(); err != nil {
		return err
	}
	return s.player.Load(ctx, locator)
}

func (s *Session) Play() error {
	return s.player.Play()
}

func (s *Session) Pause() error {
	return s.player.Pause()
}

// TogglePlayPause flips between playing and paused.
func (s *Session) TogglePlayPause() error {
	if s.player.PlayWhenReady() {
		return s.player.Pause()
	}
	return s.player.Play()
}

// SkipToPrevious restarts the current sample.
func (s *Session) SkipToPrevious() error {
	return s.player.SeekToStart()
}

// Handle dispatches a transport control.
func (s *Session) Handle(action Action) error {
	switch action {
	case ActionPlay:
		return s.Play()
	case ActionPause:
		return s.Pause()
	case ActionPlayPause:
		return s.TogglePlayPause()
	case ActionSkipToPrevious:
		return s.SkipToPrevious()
	default:
		return fmt.Errorf("unsupported playback action %q", action)
	}
}

// Stop halts playback of the current sample, e.g. when moving to the next question.
func (s *Session) Stop() {
	s.player.Stop()
}

// Release stops and frees the player, cancels the notification and closes all subscriptions.
func (s *Session) Release() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.mu.Unlock()

	if s.presenter != nil {
		if err := s.presenter.Cancel(); err != nil {
			s.log.Warn("cancel notification failed", "error", err)
		}
	}
	s.player.Release()
}

// State returns the latest published playback state.
func (s *Session) State() PlaybackState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe returns a channel that receives playback state updates.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan PlaybackState, func()) {
	ch := make(chan PlaybackState, 4)

	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	initial := s.state
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) onPlayerEvent(ev Event) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	switch {
	case ev.State == StateReady && ev.PlayWhenReady:
		s.state.State = SessionPlaying
	case ev.State == StateReady:
		s.state.State = SessionPaused
	case ev.State == StateEnded:
		s.state.State = SessionStopped
	case ev.State == StateIdle:
		s.state.State = SessionNone
	}
	s.state.Position = ev.Position
	state := s.state
	s.broadcastLocked(state)
	s.mu.Unlock()

	s.log.Debug("playback state changed", "player_state", ev.State, "session_state", state.State, "position", ev.Position)
	if s.presenter != nil {
		if err := s.presenter.Show(state); err != nil {
			s.log.Warn("show notification failed", "error", err)
		}
	}
}

func (s *Session) isActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *Session) broadcastLocked(state PlaybackState) {
	for ch := range s.subscribers {
		select {
		case ch <- state:
		default:
			// latest state wins for slow subscribers
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
}

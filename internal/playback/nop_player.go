//go:build !((linux && cgo) || windows || darwin)

package playback

import (
	"context"
	"net/http"
	"sync"
	"time"

	"classical-quiz-service/internal/logger"
)

// AudioAvailable indicates whether audio playback is supported in this build.
// Audio requires CGO for native sound libraries on Linux.
const AudioAvailable = false

// BeepPlayer tracks playback state without producing sound in builds without cgo.
// Samples are still fetched so missing locators surface the same way.
type BeepPlayer struct {
	mu            sync.Mutex
	client        *http.Client
	log           *logger.Logger
	loaded        bool
	state         State
	playWhenReady bool
	released      bool
	listener      func(Event)
}

func NewBeepPlayer(client *http.Client, log *logger.Logger) *BeepPlayer {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &BeepPlayer{client: client, log: log.With("component", "silent_player"), state: StateIdle}
}

func (p *BeepPlayer) Load(ctx context.Context, locator string) error {
	if _, err := audioFormat(locator); err != nil {
		return err
	}
	if _, err := fetch(ctx, p.client, locator); err != nil {
		return err
	}
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return ErrReleased
	}
	p.loaded = true
	p.state = StateReady
	ev := p.eventLocked()
	p.mu.Unlock()
	p.log.Debug("audio unavailable in this build, sample not played", "locator", locator)
	p.emit(ev)
	return nil
}

func (p *BeepPlayer) Play() error  { return p.setPlayWhenReady(true) }
func (p *BeepPlayer) Pause() error { return p.setPlayWhenReady(false) }

func (p *BeepPlayer) setPlayWhenReady(play bool) error {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return ErrReleased
	}
	p.playWhenReady = play
	ev := p.eventLocked()
	p.mu.Unlock()
	p.emit(ev)
	return nil
}

func (p *BeepPlayer) SeekToStart() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return ErrNothingLoaded
	}
	return nil
}

func (p *BeepPlayer) Stop() {
	p.mu.Lock()
	p.loaded = false
	p.state = StateIdle
	ev := p.eventLocked()
	p.mu.Unlock()
	p.emit(ev)
}

func (p *BeepPlayer) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = false
	p.released = true
	p.listener = nil
	p.state = StateIdle
}

func (p *BeepPlayer) Position() time.Duration { return 0 }

func (p *BeepPlayer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *BeepPlayer) PlayWhenReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playWhenReady
}

func (p *BeepPlayer) OnStateChange(fn func(Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = fn
}

func (p *BeepPlayer) eventLocked() Event {
	return Event{State: p.state, PlayWhenReady: p.playWhenReady}
}

func (p *BeepPlayer) emit(ev Event) {
	p.mu.Lock()
	fn := p.listener
	p.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

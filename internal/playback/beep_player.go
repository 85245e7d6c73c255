//go:build (linux && cgo) || windows || darwin

package playback

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"classical-quiz-service/internal/logger"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// AudioAvailable indicates whether audio playback is supported in this build.
const AudioAvailable = true

const speakerRate = beep.SampleRate(44100)

var (
	speakerOnce sync.Once
	speakerErr  error
)

// BeepPlayer plays samples through the system speaker.
type BeepPlayer struct {
	mu     sync.Mutex
	client *http.Client
	log    *logger.Logger

	streamer      beep.StreamSeekCloser
	format        beep.Format
	ctrl          *beep.Ctrl
	started       bool
	state         State
	playWhenReady bool
	released      bool
	playbackID    uint64 // bumped on every load so stale end callbacks are ignored
	listener      func(Event)
}

func NewBeepPlayer(client *http.Client, log *logger.Logger) *BeepPlayer {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &BeepPlayer{
		client: client,
		log:    log.With("component", "beep_player"),
		state:  StateIdle,
	}
}

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(speakerRate, speakerRate.N(time.Second/10))
	})
	return speakerErr
}

func (p *BeepPlayer) Load(ctx context.Context, locator string) error {
	kind, err := audioFormat(locator)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return ErrReleased
	}
	p.stopLocked()
	p.playbackID++
	id := p.playbackID
	p.state = StateBuffering
	ev := p.eventLocked()
	p.mu.Unlock()
	p.emit(ev)

	data, err := fetch(ctx, p.client, locator)
	if err != nil {
		p.setState(StateIdle)
		return err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch kind {
	case "mp3":
		streamer, format, err = mp3.Decode(nopCloser{bytes.NewReader(data)})
	case "wav":
		streamer, format, err = wav.Decode(bytes.NewReader(data))
	}
	if err != nil {
		p.setState(StateIdle)
		return err
	}
	if err := initSpeaker(); err != nil {
		streamer.Close()
		p.setState(StateIdle)
		return err
	}

	p.mu.Lock()
	if id != p.playbackID || p.released {
		// superseded by a newer load while fetching
		p.mu.Unlock()
		streamer.Close()
		return nil
	}
	p.streamer = streamer
	p.format = format
	p.ctrl = &beep.Ctrl{Streamer: beep.Resample(4, format.SampleRate, speakerRate, streamer), Paused: !p.playWhenReady}
	p.state = StateReady
	if p.playWhenReady {
		p.startLocked(id)
	}
	ev = p.eventLocked()
	p.mu.Unlock()

	p.log.Debug("sample loaded", "locator", locator, "format", kind)
	p.emit(ev)
	return nil
}

func (p *BeepPlayer) Play() error {
	return p.setPlayWhenReady(true)
}

func (p *BeepPlayer) Pause() error {
	return p.setPlayWhenReady(false)
}

func (p *BeepPlayer) setPlayWhenReady(play bool) error {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return ErrReleased
	}
	p.playWhenReady = play
	if p.ctrl != nil {
		if play && !p.started {
			p.startLocked(p.playbackID)
		}
		speaker.Lock()
		p.ctrl.Paused = !play
		speaker.Unlock()
	}
	ev := p.eventLocked()
	p.mu.Unlock()
	p.emit(ev)
	return nil
}

// startLocked hands the stream to the speaker. Must be called with p.mu held.
func (p *BeepPlayer) startLocked(id uint64) {
	p.started = true
	speaker.Play(beep.Seq(p.ctrl, beep.Callback(func() {
		// run outside the speaker lock
		go p.onEnded(id)
	})))
}

func (p *BeepPlayer) onEnded(id uint64) {
	p.mu.Lock()
	if id != p.playbackID {
		p.mu.Unlock()
		return
	}
	p.state = StateEnded
	ev := p.eventLocked()
	p.mu.Unlock()
	p.emit(ev)
}

func (p *BeepPlayer) SeekToStart() error {
	p.mu.Lock()
	if p.streamer == nil {
		p.mu.Unlock()
		return ErrNothingLoaded
	}
	speaker.Lock()
	err := p.streamer.Seek(0)
	speaker.Unlock()
	if err != nil {
		p.mu.Unlock()
		return err
	}
	restart := p.state == StateEnded
	if restart {
		p.playbackID++
		p.state = StateReady
		p.ctrl = &beep.Ctrl{Streamer: beep.Resample(4, p.format.SampleRate, speakerRate, p.streamer), Paused: !p.playWhenReady}
		if p.playWhenReady {
			p.startLocked(p.playbackID)
		} else {
			p.started = false
		}
	}
	ev := p.eventLocked()
	p.mu.Unlock()
	p.emit(ev)
	return nil
}

func (p *BeepPlayer) Stop() {
	p.mu.Lock()
	wasLoaded := p.streamer != nil
	p.stopLocked()
	p.playbackID++
	p.state = StateIdle
	ev := p.eventLocked()
	p.mu.Unlock()
	if wasLoaded {
		p.emit(ev)
	}
}

func (p *BeepPlayer) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.playbackID++
	p.released = true
	p.listener = nil
	p.state = StateIdle
}

// stopLocked stops playback and frees the current stream (must be called with lock held).
func (p *BeepPlayer) stopLocked() {
	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Paused = true
		p.ctrl.Streamer = nil
		speaker.Unlock()
	}
	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	p.ctrl = nil
	p.started = false
}

func (p *BeepPlayer) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *BeepPlayer) positionLocked() time.Duration {
	if p.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := p.streamer.Position()
	speaker.Unlock()
	return p.format.SampleRate.D(pos)
}

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

func (p *BeepPlayer) setState(state State) {
	p.mu.Lock()
	p.state = state
	ev := p.eventLocked()
	p.mu.Unlock()
	p.emit(ev)
}

func (p *BeepPlayer) eventLocked() Event {
	return Event{State: p.state, PlayWhenReady: p.playWhenReady, Position: p.positionLocked()}
}

func (p *BeepPlayer) emit(ev Event) {
	p.mu.Lock()
	fn := p.listener
	p.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// nopCloser wraps a bytes.Reader to implement io.ReadCloser.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }

// Package notify renders the media-session state as a system notification.
package notify

import (
	"fmt"
	"strings"
	"sync"

	"classical-quiz-service/internal/logger"
	"classical-quiz-service/internal/playback"
	"github.com/gen2brain/beeep"
)

const (
	notificationTitle = "Guess the composer!"
	notificationText  = "Now playing a classical music sample"
)

// Content is the rendered notification.
type Content struct {
	Title   string
	Text    string
	Status  string
	Actions []string
}

// Body flattens the content for notifiers that only take a message. Desktop notifications
// have no buttons, so the actions are named as something to do in the quiz itself.
func (c Content) Body() string {
	body := c.Text
	if c.Status != "" {
		body += "\n" + c.Status + "."
	}
	if len(c.Actions) > 0 {
		body += " Use the quiz to " + strings.ToLower(strings.Join(c.Actions, " or ")) + "."
	}
	return body
}

// Build renders the notification for a playback state: a restart action plus play or pause
// depending on whether the sample is currently playing.
func Build(state playback.PlaybackState) Content {
	playPause := "Play"
	if state.State == playback.SessionPlaying {
		playPause = "Pause"
	}
	return Content{
		Title:   notificationTitle,
		Text:    notificationText,
		Status:  statusText(state.State),
		Actions: []string{"Restart", playPause},
	}
}

func statusText(state playback.SessionState) string {
	switch state {
	case playback.SessionPlaying:
		return "Playing"
	case playback.SessionPaused:
		return "Paused"
	case playback.SessionStopped:
		return "Finished"
	default:
		return ""
	}
}

type sendFunc func(title, message string) error

// DesktopPresenter shows playback notifications through the OS notification service.
// Identical consecutive notifications are suppressed.
type DesktopPresenter struct {
	send sendFunc
	log  *logger.Logger

	mu   sync.Mutex
	last *Content
}

func NewDesktopPresenter(appName string, log *logger.Logger) *DesktopPresenter {
	if appName != "" {
		beeep.AppName = appName
	}
	return &DesktopPresenter{
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		log: log.With("component", "desktop_notifier"),
	}
}

func (p *DesktopPresenter) Show(state playback.PlaybackState) error {
	content := Build(state)

	p.mu.Lock()
	if p.last != nil && p.last.Body() == content.Body() {
		p.mu.Unlock()
		return nil
	}
	p.last = &content
	p.mu.Unlock()

	if err := p.send(content.Title, content.Body()); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}

// Cancel forgets the last notification so the next state is always shown. Desktop
// notifications cannot be withdrawn once sent.
func (p *DesktopPresenter) Cancel() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = nil
	return nil
}

// LogPresenter writes notifications to the log; used when desktop notifications are disabled.
type LogPresenter struct {
	log *logger.Logger
}

func NewLogPresenter(log *logger.Logger) *LogPresenter {
	return &LogPresenter{log: log.With("component", "notification")}
}

func (p *LogPresenter) Show(state playback.PlaybackState) error {
	content := Build(state)
	p.log.Debug(content.Title, "text", content.Text, "actions", content.Actions, "state", state.State)
	return nil
}

func (p *LogPresenter) Cancel() error {
	p.log.Debug("notification cancelled")
	return nil
}

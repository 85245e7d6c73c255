package tui

import (
	"context"
	"time"

	"classical-quiz-service/internal/app"
	tea "github.com/charmbracelet/bubbletea"
)

// Options configures the terminal game.
type Options struct {
	// ResumeID continues a carried-over game instead of starting a new one.
	ResumeID    string
	RevealDelay time.Duration
	Feed        PlaybackFeed
}

// Result describes how the terminal game ended.
type Result struct {
	GameID string
	// Over is false when the player quit mid-game; the game can then be resumed by ID.
	Over bool
}

// Run plays one game in the terminal until the player quits.
func Run(ctx context.Context, service *app.GameService, opts Options) (Result, error) {
	var m model
	if opts.Feed != nil {
		updates, cancel := opts.Feed.Subscribe()
		defer cancel()
		m = newModel(ctx, service, opts.ResumeID, opts.RevealDelay, updates)
	} else {
		m = newModel(ctx, service, opts.ResumeID, opts.RevealDelay, nil)
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	var res Result
	if fm, ok := final.(model); ok && fm.gameID != "" {
		res = Result{GameID: fm.gameID, Over: fm.over != nil}
		service.EndGame(context.Background(), fm.gameID)
	}
	return res, err
}

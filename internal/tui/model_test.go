package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"classical-quiz-service/internal/app"
	"classical-quiz-service/internal/domain"
	"classical-quiz-service/internal/infra/memory"
	"classical-quiz-service/internal/logger"
	"classical-quiz-service/internal/playback"
	tea "github.com/charmbracelet/bubbletea"
)

func TestModelPlaysRoundWithReveal(t *testing.T) {
	m := startedModel(t, 3)

	if !strings.Contains(m.View(), "Portrait: "+app.PlaceholderPortrait) {
		t.Fatalf("expected placeholder portrait in view:\n%s", m.View())
	}
	if m.gameID == "" || !strings.Contains(m.View(), "Game: "+m.gameID) {
		t.Fatalf("expected game id %q in view:\n%s", m.gameID, m.View())
	}

	m, cmd := update(t, m, key("1"))
	if cmd == nil {
		t.Fatalf("expected answer command")
	}
	m, tick := update(t, m, cmd())
	if m.reveal == nil || !m.reveal.Correct {
		t.Fatalf("expected correct reveal, got %+v", m.reveal)
	}
	if tick == nil {
		t.Fatalf("expected reveal tick")
	}
	view := m.View()
	if !strings.Contains(view, "Correct! Beethoven") || !strings.Contains(view, "Portrait: beethoven") {
		t.Fatalf("expected revealed answer in view:\n%s", view)
	}

	// answers are ignored while the reveal is showing
	if _, cmd := update(t, m, key("2")); cmd != nil {
		t.Fatalf("expected no command during reveal")
	}

	m, cmd = update(t, m, advanceMsg{})
	m, _ = update(t, m, cmd())
	if m.reveal != nil || m.round == nil || m.round.Remaining != 2 {
		t.Fatalf("expected next round with 2 remaining, got %+v", m.round)
	}
}

func TestModelShowsGameOver(t *testing.T) {
	m := startedModel(t, 2)

	m, cmd := update(t, m, key("b"))
	m, tick := update(t, m, cmd())
	if tick != nil {
		t.Fatalf("expected no reveal tick on the final answer")
	}
	if m.over == nil {
		t.Fatalf("expected game over")
	}
	view := m.View()
	if !strings.Contains(view, "Game over") || !strings.Contains(view, "Final score: 0") || !strings.Contains(view, "Wrong. It was Beethoven") {
		t.Fatalf("unexpected game over view:\n%s", view)
	}
}

func TestModelKeys(t *testing.T) {
	m := startedModel(t, 3)

	_, cmd := update(t, m, key("q"))
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit")
	}

	// no media session: control errors surface in the view
	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m, _ = update(t, m, cmd())
	if m.err == nil || !strings.Contains(m.View(), "playback not configured") {
		t.Fatalf("expected control error, got %v", m.err)
	}

	if _, cmd := update(t, m, key("9")); cmd != nil {
		t.Fatalf("expected unknown key to be ignored")
	}
}

func TestModelTracksPlaybackState(t *testing.T) {
	updates := make(chan playback.PlaybackState, 1)
	m := newModel(context.Background(), newService(t, 3), "", time.Millisecond, updates)

	updates <- playback.PlaybackState{State: playback.SessionPlaying}
	msg := m.waitForPlayback()()
	m, next := update(t, m, msg)
	if m.playback.State != playback.SessionPlaying {
		t.Fatalf("expected playing, got %s", m.playback.State)
	}
	if next == nil {
		t.Fatalf("expected to keep listening")
	}

	close(updates)
	if next() != nil {
		t.Fatalf("expected nil message after feed closed")
	}
}

func startedModel(t *testing.T, items int) model {
	t.Helper()
	m := newModel(context.Background(), newService(t, items), "", time.Millisecond, nil)
	m, cmd := update(t, m, m.startCmd()())
	if m.gameID == "" {
		t.Fatalf("expected game id")
	}
	m, _ = update(t, m, cmd())
	if m.round == nil {
		t.Fatalf("expected first round, err=%v", m.err)
	}
	return m
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

type zeroRand struct{}

func (zeroRand) Intn(int) int { return 0 }

func newService(t *testing.T, n int) *app.GameService {
	t.Helper()
	items := []domain.Item{
		{ID: 1, Composer: "Beethoven", Title: "Symphony No. 5", URI: "file:///samples/beethoven.mp3", Portrait: "beethoven"},
		{ID: 2, Composer: "Bach", Title: "Toccata and Fugue", URI: "file:///samples/bach.mp3", Portrait: "bach"},
		{ID: 3, Composer: "Mozart", Title: "Eine kleine Nachtmusik", URI: "file:///samples/mozart.mp3", Portrait: "mozart"},
	}
	catalog := memory.NewCatalogRepository(memory.NewStaticCatalogLoader(items[:n]), time.Minute)
	return app.NewGameService(catalog, memory.NewScoreStore(), memory.NewGameStore(), memory.NewHandoffStore(), logger.Nop(),
		app.WithGameOptions(app.WithRandomizer(zeroRand{})),
	)
}

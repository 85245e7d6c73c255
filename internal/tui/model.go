package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"classical-quiz-service/internal/app"
	"classical-quiz-service/internal/domain"
	"classical-quiz-service/internal/playback"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	choiceStyle  = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62"))
	correctStyle = choiceStyle.BorderForeground(lipgloss.Color("46")).Foreground(lipgloss.Color("46"))
	wrongStyle   = choiceStyle.BorderForeground(lipgloss.Color("196")).Foreground(lipgloss.Color("196"))
	dimStyle     = choiceStyle.Foreground(lipgloss.Color("240"))
	rightStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	missStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const labelWidth = 24

var answerKeys = map[string]int{
	"1": 0, "2": 1, "3": 2, "4": 3,
	"a": 0, "b": 1, "c": 2, "d": 3,
}

// PlaybackFeed publishes media session state changes.
type PlaybackFeed interface {
	Subscribe() (<-chan playback.PlaybackState, func())
}

type startedMsg app.GameView
type roundMsg app.RoundView
type answeredMsg app.AnswerView
type gameOverMsg app.GameView
type advanceMsg struct{}
type playbackMsg playback.PlaybackState
type errMsg struct{ err error }

type model struct {
	ctx         context.Context
	service     *app.GameService
	resumeID    string
	revealDelay time.Duration
	updates     <-chan playback.PlaybackState

	gameID   string
	round    *app.RoundView
	reveal   *app.AnswerView
	over     *app.GameView
	playback playback.PlaybackState
	err      error
}

func newModel(ctx context.Context, service *app.GameService, resumeID string, revealDelay time.Duration, updates <-chan playback.PlaybackState) model {
	return model{
		ctx:         ctx,
		service:     service,
		resumeID:    resumeID,
		revealDelay: revealDelay,
		updates:     updates,
		playback:    playback.PlaybackState{State: playback.SessionNone},
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.startCmd()}
	if m.updates != nil {
		cmds = append(cmds, m.waitForPlayback())
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	case startedMsg:
		m.gameID = msg.GameID
		return m, m.nextRoundCmd()
	case roundMsg:
		round := app.RoundView(msg)
		m.round = &round
		m.reveal = nil
		m.err = nil
		return m, nil
	case answeredMsg:
		view := app.AnswerView(msg)
		m.reveal = &view
		m.err = nil
		if view.GameOver {
			m.over = &app.GameView{GameID: m.gameID, Scores: view.Scores}
			return m, nil
		}
		return m, tea.Tick(m.revealDelay, func(time.Time) tea.Msg { return advanceMsg{} })
	case advanceMsg:
		m.service.Advance(m.ctx, m.gameID)
		return m, m.nextRoundCmd()
	case gameOverMsg:
		view := app.GameView(msg)
		m.over = &view
		return m, nil
	case playbackMsg:
		m.playback = playback.PlaybackState(msg)
		return m, m.waitForPlayback()
	case errMsg:
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ":
		return m, m.controlCmd(playback.ActionPlayPause)
	case "r":
		return m, m.controlCmd(playback.ActionSkipToPrevious)
	}
	idx, ok := answerKeys[strings.ToLower(key)]
	if !ok || m.round == nil || m.reveal != nil || m.over != nil {
		return m, nil
	}
	if idx >= len(m.round.Choices) {
		return m, nil
	}
	return m, m.answerCmd(m.round.Choices[idx].ID)
}

func (m model) startCmd() tea.Cmd {
	return func() tea.Msg {
		var (
			view app.GameView
			err  error
		)
		if m.resumeID != "" {
			view, err = m.service.ResumeGame(m.ctx, m.resumeID)
		} else {
			view, err = m.service.StartGame(m.ctx)
		}
		if err != nil {
			return errMsg{err}
		}
		return startedMsg(view)
	}
}

func (m model) nextRoundCmd() tea.Cmd {
	gameID := m.gameID
	return func() tea.Msg {
		round, err := m.service.NextQuestion(m.ctx, gameID)
		if errors.Is(err, domain.ErrGameOver) {
			summary, err := m.service.Summary(m.ctx, gameID)
			if err != nil {
				return errMsg{err}
			}
			return gameOverMsg(summary)
		}
		if err != nil {
			return errMsg{err}
		}
		return roundMsg(round)
	}
}

func (m model) answerCmd(itemID int) tea.Cmd {
	gameID := m.gameID
	return func() tea.Msg {
		view, err := m.service.Answer(m.ctx, gameID, itemID)
		if err != nil {
			return errMsg{err}
		}
		return answeredMsg(view)
	}
}

func (m model) controlCmd(action playback.Action) tea.Cmd {
	return func() tea.Msg {
		if err := m.service.Control(m.ctx, action); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m model) waitForPlayback() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		state, ok := <-updates
		if !ok {
			return nil
		}
		return playbackMsg(state)
	}
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Guess the composer!"))
	b.WriteString("\n\n")

	if m.over != nil {
		b.WriteString(titleStyle.Render("Game over"))
		b.WriteString("\n")
		b.WriteString(scoreStyle.Render(fmt.Sprintf("Final score: %d   High score: %d", m.over.Scores.Current, m.over.Scores.High)))
		b.WriteString("\n\n")
		if m.reveal != nil {
			b.WriteString(m.revealLine())
			b.WriteString("\n\n")
		}
		b.WriteString(helpStyle.Render("q: quit"))
		return b.String()
	}

	if m.round == nil {
		if m.err != nil {
			b.WriteString(errorStyle.Render(m.err.Error()))
			b.WriteString("\n\n")
			b.WriteString(helpStyle.Render("q: quit"))
			return b.String()
		}
		b.WriteString("Loading...")
		return b.String()
	}

	scores := m.round.Scores
	portrait := m.round.Portrait
	if m.reveal != nil {
		scores = m.reveal.Scores
		portrait = m.reveal.Portrait
	}
	b.WriteString(scoreStyle.Render(fmt.Sprintf("Score: %d   High score: %d   Remaining: %d", scores.Current, scores.High, m.round.Remaining)))
	b.WriteString("\n")
	b.WriteString(scoreStyle.Render("Portrait: " + portrait))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Game: " + m.gameID))
	b.WriteString("\n\n")

	boxes := make([]string, 0, len(m.round.Choices))
	for i, choice := range m.round.Choices {
		label := fmt.Sprintf("%d  %s", i+1, runewidth.Truncate(choice.Label, labelWidth, "…"))
		boxes = append(boxes, m.styleFor(choice.ID).Render(label))
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, boxes...))
	b.WriteString("\n\n")

	if m.reveal != nil {
		b.WriteString(m.revealLine())
		b.WriteString("\n")
	}
	b.WriteString(scoreStyle.Render("Playback: " + string(m.playback.State)))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("1-4/a-d: answer  space: play/pause  r: restart  q: quit"))
	return b.String()
}

func (m model) styleFor(id int) lipgloss.Style {
	if m.reveal == nil {
		return choiceStyle
	}
	switch {
	case id == m.reveal.CorrectID:
		return correctStyle
	case id == m.reveal.ChosenID:
		return wrongStyle
	default:
		return dimStyle
	}
}

func (m model) revealLine() string {
	answer := m.reveal.Answer
	line := answer.Composer
	if answer.Title != "" {
		line += " - " + answer.Title
	}
	if m.reveal.Correct {
		return rightStyle.Render("Correct! " + line)
	}
	return missStyle.Render("Wrong. It was " + line)
}

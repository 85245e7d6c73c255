package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"classical-quiz-service/internal/domain"
	"github.com/samber/lo"
)

// DefaultAnswerSlots is the number of answer buttons on the quiz screen.
const DefaultAnswerSlots = 4

// Phase is the lifecycle position of a game.
type Phase int

const (
	PhaseAwaitingQuestion Phase = iota
	PhaseQuestionActive
	PhaseResolved
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingQuestion:
		return "awaiting_question"
	case PhaseQuestionActive:
		return "question_active"
	case PhaseResolved:
		return "resolved"
	case PhaseGameOver:
		return "game_over"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Randomizer is the single source of randomness for question generation.
// *rand.Rand satisfies it.
type Randomizer interface {
	Intn(n int) int
}

// Catalog provides the items a game is built from.
type Catalog interface {
	AllItemIDs(ctx context.Context) ([]int, error)
	ItemByID(ctx context.Context, id int) (domain.Item, error)
}

// ScoreStore persists the current and high score across process restarts.
type ScoreStore interface {
	GetCurrent(ctx context.Context) (int, error)
	SetCurrent(ctx context.Context, score int) error
	GetHigh(ctx context.Context) (int, error)
	SetHigh(ctx context.Context, score int) error
}

// GameOption customizes a game.
type GameOption func(*Game)

// WithRandomizer replaces the time-seeded random source.
func WithRandomizer(rnd Randomizer) GameOption {
	return func(g *Game) {
		if rnd != nil {
			g.rnd = rnd
		}
	}
}

// WithAnswerSlots sets how many candidates a question offers at most.
func WithAnswerSlots(slots int) GameOption {
	return func(g *Game) {
		if slots > 0 {
			g.slots = slots
		}
	}
}

// Game is a single quiz run. It is not safe for concurrent use; one round is active at a time.
type Game struct {
	pool     []int
	scores   domain.ScoreState
	question *domain.Question
	phase    Phase
	slots    int
	rnd      Randomizer
	store    ScoreStore
}

// NewGame starts a fresh game over every catalog item. The current score is reset to zero
// in the store; the high score is loaded from it.
func NewGame(ctx context.Context, catalog Catalog, store ScoreStore, opts ...GameOption) (*Game, error) {
	ids, err := catalog.AllItemIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, domain.ErrEmptyCatalog
	}
	if err := store.SetCurrent(ctx, 0); err != nil {
		return nil, fmt.Errorf("reset current score: %w", err)
	}
	high, err := store.GetHigh(ctx)
	if err != nil {
		return nil, fmt.Errorf("load high score: %w", err)
	}
	return ResumeGame(ids, 0, high, store, opts...), nil
}

// ResumeGame rebuilds a game from a carried-over pool without resetting the current score.
func ResumeGame(pool []int, current, high int, store ScoreStore, opts ...GameOption) *Game {
	g := &Game{
		pool:   append([]int(nil), pool...),
		scores: domain.ScoreState{Current: current, High: high},
		phase:  PhaseAwaitingQuestion,
		slots:  DefaultAnswerSlots,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		store:  store,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.IsGameOver() {
		g.phase = PhaseGameOver
	}
	return g
}

// RestoreGame resumes from a handoff payload, re-reading the high score from the store.
func RestoreGame(ctx context.Context, handoff domain.Handoff, store ScoreStore, opts ...GameOption) (*Game, error) {
	high, err := store.GetHigh(ctx)
	if err != nil {
		return nil, fmt.Errorf("load high score: %w", err)
	}
	return ResumeGame(handoff.RemainingIDs, handoff.CurrentScore, high, store, opts...), nil
}

// GenerateQuestion draws up to the configured number of distinct candidates from the pool and
// picks one of them as the correct answer. The pool is not modified.
func (g *Game) GenerateQuestion() (domain.Question, error) {
	switch g.phase {
	case PhaseGameOver:
		return domain.Question{}, domain.ErrGameOver
	case PhaseQuestionActive:
		return domain.Question{}, domain.ErrQuestionActive
	}
	if g.IsGameOver() {
		g.phase = PhaseGameOver
		return domain.Question{}, domain.ErrGameOver
	}

	n := min(g.slots, len(g.pool))
	shuffled := append([]int(nil), g.pool...)
	// partial Fisher-Yates: the first n entries become a uniform sample without replacement
	for i := 0; i < n; i++ {
		j := i + g.rnd.Intn(len(shuffled)-i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	candidates := shuffled[:n:n]

	q := domain.Question{
		CandidateIDs: candidates,
		CorrectID:    candidates[g.rnd.Intn(n)],
	}
	g.question = &q
	g.phase = PhaseQuestionActive
	return q, nil
}

// RecordAnswer grades the chosen item, updates and persists the scores, and retires the
// correct item from the pool. The high score is compared against the stored value, not the
// one loaded at start, so games sharing a store never lower it. If persisting fails the game
// is left untouched and the stored current score is put back.
func (g *Game) RecordAnswer(ctx context.Context, chosenID int) (domain.Outcome, error) {
	if g.phase != PhaseQuestionActive || g.question == nil {
		return domain.Outcome{}, domain.ErrNoActiveQuestion
	}
	q := *g.question
	if !lo.Contains(q.CandidateIDs, chosenID) {
		return domain.Outcome{}, domain.ErrNotACandidate
	}

	storedHigh, err := g.store.GetHigh(ctx)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("load high score: %w", err)
	}

	correct := chosenID == q.CorrectID
	scores := g.scores
	if correct {
		scores.Current++
	}
	scores.High = max(scores.High, storedHigh, scores.Current)

	if err := g.store.SetCurrent(ctx, scores.Current); err != nil {
		return domain.Outcome{}, fmt.Errorf("persist current score: %w", err)
	}
	if scores.High != storedHigh {
		if err := g.store.SetHigh(ctx, scores.High); err != nil {
			if rbErr := g.store.SetCurrent(ctx, g.scores.Current); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("restore current score: %w", rbErr))
			}
			return domain.Outcome{}, fmt.Errorf("persist high score: %w", err)
		}
	}

	g.scores = scores
	g.pool = lo.Without(g.pool, q.CorrectID)
	g.question = nil
	g.phase = PhaseResolved

	if g.IsGameOver() {
		g.phase = PhaseGameOver
	} else {
		g.phase = PhaseAwaitingQuestion
	}

	return domain.Outcome{
		Correct:   correct,
		ChosenID:  chosenID,
		CorrectID: q.CorrectID,
		Scores:    scores,
		GameOver:  g.phase == PhaseGameOver,
	}, nil
}

// DiscardQuestion drops the active question without grading it. Pool and scores are unchanged.
func (g *Game) DiscardQuestion() {
	if g.phase != PhaseQuestionActive {
		return
	}
	g.question = nil
	g.phase = PhaseAwaitingQuestion
}

// IsGameOver reports whether the pool is too small to form another question.
func (g *Game) IsGameOver() bool {
	return len(g.pool) < 2
}

// Phase returns the current lifecycle phase.
func (g *Game) Phase() Phase {
	return g.phase
}

// Question returns the active question, if any.
func (g *Game) Question() (domain.Question, bool) {
	if g.question == nil {
		return domain.Question{}, false
	}
	return *g.question, true
}

// Pool returns a copy of the remaining item IDs.
func (g *Game) Pool() []int {
	return append([]int(nil), g.pool...)
}

// Scores returns the current score state.
func (g *Game) Scores() domain.ScoreState {
	return g.scores
}

// Handoff returns the state that must survive a process boundary. An unanswered question
// is discarded and regenerated on resume.
func (g *Game) Handoff() domain.Handoff {
	return domain.Handoff{
		RemainingIDs: g.Pool(),
		CurrentScore: g.scores.Current,
	}
}

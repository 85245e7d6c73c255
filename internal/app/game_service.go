package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"classical-quiz-service/internal/domain"
	"classical-quiz-service/internal/logger"
	"classical-quiz-service/internal/playback"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// GameRepository holds the games that are live in this process.
type GameRepository interface {
	Put(gameID string, game *Game)
	Get(gameID string) (*Game, bool)
	Delete(gameID string)
}

// GameLocks marks games as being played so other instances refuse to resume them.
// A GameRepository that also implements GameLocks is used for both.
type GameLocks interface {
	Touch(ctx context.Context, gameID string) error
	Live(ctx context.Context, gameID string) (bool, error)
	Release(ctx context.Context, gameID string) error
}

// HandoffStore persists the carry-over state of a game between rounds.
type HandoffStore interface {
	Save(ctx context.Context, gameID string, handoff domain.Handoff) error
	Load(ctx context.Context, gameID string) (domain.Handoff, error)
	Delete(ctx context.Context, gameID string) error
}

// Playback is the subset of the media session the service drives.
type Playback interface {
	Load(ctx context.Context, locator string) error
	Stop()
	Handle(action playback.Action) error
}

// PlaceholderPortrait is shown until the question is answered.
const PlaceholderPortrait = "question_mark"

// GameView identifies a game and its scores.
type GameView struct {
	GameID string            `json:"gameId"`
	Scores domain.ScoreState `json:"scores"`
}

// RoundView is a question as presented to a player. The correct answer is not included.
type RoundView struct {
	GameID    string            `json:"gameId"`
	Choices   []domain.Choice   `json:"choices"`
	AudioURI  string            `json:"audioUri"`
	Portrait  string            `json:"portrait"`
	Scores    domain.ScoreState `json:"scores"`
	Remaining int               `json:"remaining"`
}

// AnswerView reveals the result of a round.
type AnswerView struct {
	domain.Outcome
	GameID   string      `json:"gameId"`
	Answer   domain.Item `json:"answer"`
	Portrait string      `json:"portrait"`
}

// ServiceOption customizes a GameService.
type ServiceOption func(*GameService)

// WithPlayback wires a media session that plays the correct sample of every question.
func WithPlayback(p Playback) ServiceOption {
	return func(s *GameService) { s.playback = p }
}

// WithGameOptions applies options to every game the service creates.
func WithGameOptions(opts ...GameOption) ServiceOption {
	return func(s *GameService) { s.gameOpts = append(s.gameOpts, opts...) }
}

// WithIDGenerator replaces uuid-based game IDs.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *GameService) { s.newID = fn }
}

// GameService contains the quiz use cases: starting and resuming games, playing rounds and
// grading answers.
type GameService struct {
	catalog  Catalog
	scores   ScoreStore
	games    GameRepository
	locks    GameLocks
	handoffs HandoffStore
	playback Playback
	gameOpts []GameOption
	newID    func() string
	log      *logger.Logger

	// one round is active at a time per game; the lock serializes access to Game values
	mu sync.Mutex
}

func NewGameService(catalog Catalog, scores ScoreStore, games GameRepository, handoffs HandoffStore, log *logger.Logger, opts ...ServiceOption) *GameService {
	s := &GameService{
		catalog:  catalog,
		scores:   scores,
		games:    games,
		handoffs: handoffs,
		newID:    func() string { return uuid.NewString() },
		log:      log.With("component", "game_service"),
	}
	if locks, ok := games.(GameLocks); ok {
		s.locks = locks
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartGame begins a new game over the whole catalog.
func (s *GameService) StartGame(ctx context.Context) (GameView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, err := NewGame(ctx, s.catalog, s.scores, s.gameOpts...)
	if err != nil {
		return GameView{}, err
	}
	gameID := s.newID()
	s.games.Put(gameID, game)
	s.touchLocked(ctx, gameID)
	if err := s.handoffs.Save(ctx, gameID, game.Handoff()); err != nil {
		s.log.Warn("save handoff failed", "game_id", gameID, "error", err)
	}
	s.log.Info("game started", "game_id", gameID, "items", len(game.Pool()), "high_score", game.Scores().High)
	return GameView{GameID: gameID, Scores: game.Scores()}, nil
}

// ResumeGame continues a game from its carried-over state. Live games are returned as is.
func (s *GameService) ResumeGame(ctx context.Context, gameID string) (GameView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if game, ok := s.games.Get(gameID); ok {
		return GameView{GameID: gameID, Scores: game.Scores()}, nil
	}
	if s.locks != nil {
		live, err := s.locks.Live(ctx, gameID)
		if err != nil {
			return GameView{}, fmt.Errorf("check game liveness: %w", err)
		}
		if live {
			return GameView{}, domain.ErrGameInUse
		}
	}
	handoff, err := s.handoffs.Load(ctx, gameID)
	if err != nil {
		return GameView{}, err
	}
	game, err := RestoreGame(ctx, handoff, s.scores, s.gameOpts...)
	if err != nil {
		return GameView{}, err
	}
	s.games.Put(gameID, game)
	s.touchLocked(ctx, gameID)
	s.log.Info("game resumed", "game_id", gameID, "remaining", len(handoff.RemainingIDs), "current_score", handoff.CurrentScore)
	return GameView{GameID: gameID, Scores: game.Scores()}, nil
}

// NextQuestion generates the next round and starts playing the correct sample.
// domain.ErrGameOver signals the end of the game. A missing catalog entry aborts the round.
func (s *GameService) NextQuestion(ctx context.Context, gameID string) (RoundView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games.Get(gameID)
	if !ok {
		return RoundView{}, domain.ErrGameNotFound
	}
	s.touchLocked(ctx, gameID)

	q, ok := game.Question()
	if !ok {
		var err error
		q, err = game.GenerateQuestion()
		if errors.Is(err, domain.ErrGameOver) {
			s.finishLocked(ctx, gameID, game)
			return RoundView{}, err
		}
		if err != nil {
			return RoundView{}, err
		}
	}

	choices := make([]domain.Choice, 0, len(q.CandidateIDs))
	for _, id := range q.CandidateIDs {
		item, err := s.catalog.ItemByID(ctx, id)
		if err != nil {
			game.DiscardQuestion()
			return RoundView{}, fmt.Errorf("candidate %d: %w", id, err)
		}
		choices = append(choices, domain.Choice{ID: item.ID, Label: item.Label()})
	}
	answer, err := s.catalog.ItemByID(ctx, q.CorrectID)
	if err != nil {
		game.DiscardQuestion()
		return RoundView{}, fmt.Errorf("answer %d: %w", q.CorrectID, err)
	}

	if s.playback != nil {
		if err := s.playback.Load(ctx, answer.URI); err != nil {
			s.log.Warn("load sample failed", "game_id", gameID, "item_id", answer.ID, "error", err)
		}
	}

	return RoundView{
		GameID:    gameID,
		Choices:   choices,
		AudioURI:  answer.URI,
		Portrait:  PlaceholderPortrait,
		Scores:    game.Scores(),
		Remaining: len(game.Pool()),
	}, nil
}

// Answer grades the player's choice, persists scores and the carry-over state, and reveals
// the correct item.
func (s *GameService) Answer(ctx context.Context, gameID string, chosenID int) (AnswerView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games.Get(gameID)
	if !ok {
		return AnswerView{}, domain.ErrGameNotFound
	}
	s.touchLocked(ctx, gameID)
	outcome, err := game.RecordAnswer(ctx, chosenID)
	if err != nil {
		return AnswerView{}, err
	}

	if outcome.GameOver {
		s.finishLocked(ctx, gameID, game)
	} else if err := s.handoffs.Save(ctx, gameID, game.Handoff()); err != nil {
		s.log.Warn("save handoff failed", "game_id", gameID, "error", err)
	}

	view := AnswerView{Outcome: outcome, GameID: gameID, Portrait: PlaceholderPortrait}
	if answer, err := s.catalog.ItemByID(ctx, outcome.CorrectID); err == nil {
		view.Answer = answer
		view.Portrait = answer.Portrait
	}
	s.log.Info("answer recorded",
		"game_id", gameID,
		"correct", outcome.Correct,
		"current_score", outcome.Scores.Current,
		"high_score", outcome.Scores.High,
		"game_over", outcome.GameOver,
	)
	return view, nil
}

// Advance stops the sample of the resolved round; called by the UI once the reveal is over.
func (s *GameService) Advance(_ context.Context, gameID string) {
	if s.playback != nil {
		s.playback.Stop()
	}
	s.log.Debug("advancing to next round", "game_id", gameID)
}

// Control forwards a transport control to the media session.
func (s *GameService) Control(_ context.Context, action playback.Action) error {
	if s.playback == nil {
		return fmt.Errorf("playback not configured")
	}
	if !lo.Contains(playback.SupportedActions, action) {
		return fmt.Errorf("unsupported playback action %q", action)
	}
	return s.playback.Handle(action)
}

// Summary returns the scores of a live game.
func (s *GameService) Summary(_ context.Context, gameID string) (GameView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games.Get(gameID)
	if !ok {
		return GameView{}, domain.ErrGameNotFound
	}
	return GameView{GameID: gameID, Scores: game.Scores()}, nil
}

// EndGame drops a live game from memory. Its carry-over state stays available for
// ResumeGame unless the game already finished.
func (s *GameService) EndGame(ctx context.Context, gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playback != nil {
		s.playback.Stop()
	}
	if _, ok := s.games.Get(gameID); !ok {
		return
	}
	s.games.Delete(gameID)
	s.releaseLocked(ctx, gameID)
}

func (s *GameService) finishLocked(ctx context.Context, gameID string, game *Game) {
	if err := s.handoffs.Delete(ctx, gameID); err != nil {
		s.log.Warn("delete handoff failed", "game_id", gameID, "error", err)
	}
	s.releaseLocked(ctx, gameID)
	scores := game.Scores()
	s.log.Info("game over", "game_id", gameID, "current_score", scores.Current, "high_score", scores.High)
}

func (s *GameService) touchLocked(ctx context.Context, gameID string) {
	if s.locks == nil {
		return
	}
	if err := s.locks.Touch(ctx, gameID); err != nil {
		s.log.Warn("mark game live failed", "game_id", gameID, "error", err)
	}
}

func (s *GameService) releaseLocked(ctx context.Context, gameID string) {
	if s.locks == nil {
		return
	}
	if err := s.locks.Release(ctx, gameID); err != nil {
		s.log.Warn("release game failed", "game_id", gameID, "error", err)
	}
}

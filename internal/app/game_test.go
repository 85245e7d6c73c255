package app_test

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"testing"
	"time"

	"classical-quiz-service/internal/app"
	"classical-quiz-service/internal/domain"
	"classical-quiz-service/internal/infra/memory"
)

func TestTwoItemGameEndsAfterOneRound(t *testing.T) {
	ctx := context.Background()
	store := memory.NewScoreStore()
	game, err := app.NewGame(ctx, newCatalog(2), store)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	if pool := game.Pool(); len(pool) != 2 || pool[0] != 1 || pool[1] != 2 {
		t.Fatalf("expected pool [1 2], got %v", pool)
	}

	q, err := game.GenerateQuestion()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	candidates := append([]int(nil), q.CandidateIDs...)
	sort.Ints(candidates)
	if len(candidates) != 2 || candidates[0] != 1 || candidates[1] != 2 {
		t.Fatalf("expected candidates {1,2}, got %v", q.CandidateIDs)
	}
	if q.CorrectID != 1 && q.CorrectID != 2 {
		t.Fatalf("correct id %d not in {1,2}", q.CorrectID)
	}

	outcome, err := game.RecordAnswer(ctx, q.CandidateIDs[0])
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(game.Pool()) != 1 {
		t.Fatalf("expected 1 item left, got %v", game.Pool())
	}
	if !game.IsGameOver() || !outcome.GameOver || game.Phase() != app.PhaseGameOver {
		t.Fatalf("expected game over, phase=%s outcome=%+v", game.Phase(), outcome)
	}
	if _, err := game.GenerateQuestion(); !errors.Is(err, domain.ErrGameOver) {
		t.Fatalf("expected game over error, got %v", err)
	}
}

func TestCandidateCountFollowsPoolSize(t *testing.T) {
	ctx := context.Background()
	game, err := app.NewGame(ctx, newCatalog(10), memory.NewScoreStore(), app.WithRandomizer(rand.New(rand.NewSource(7))))
	if err != nil {
		t.Fatalf("new game: %v", err)
	}

	asked := map[int]bool{}
	rounds := 0
	for !game.IsGameOver() {
		pool := game.Pool()
		q, err := game.GenerateQuestion()
		if err != nil {
			t.Fatalf("round %d: generate: %v", rounds, err)
		}

		want := 4
		if len(pool) < 4 {
			want = len(pool)
		}
		if len(q.CandidateIDs) != want {
			t.Fatalf("round %d: expected %d candidates with pool %d, got %v", rounds, want, len(pool), q.CandidateIDs)
		}
		seen := map[int]bool{}
		correctFound := false
		for _, id := range q.CandidateIDs {
			if seen[id] {
				t.Fatalf("round %d: duplicate candidate %d in %v", rounds, id, q.CandidateIDs)
			}
			seen[id] = true
			if asked[id] {
				t.Fatalf("round %d: already asked item %d reappeared", rounds, id)
			}
			if !contains(pool, id) {
				t.Fatalf("round %d: candidate %d not in pool %v", rounds, id, pool)
			}
			if id == q.CorrectID {
				correctFound = true
			}
		}
		if !correctFound {
			t.Fatalf("round %d: correct id %d not among candidates %v", rounds, q.CorrectID, q.CandidateIDs)
		}
		if got := game.Pool(); len(got) != len(pool) {
			t.Fatalf("round %d: generate must not mutate pool", rounds)
		}

		if _, err := game.RecordAnswer(ctx, q.CandidateIDs[len(q.CandidateIDs)-1]); err != nil {
			t.Fatalf("round %d: record: %v", rounds, err)
		}
		asked[q.CorrectID] = true
		if got := game.Pool(); len(got) != len(pool)-1 || contains(got, q.CorrectID) {
			t.Fatalf("round %d: expected %d retired from %v, got %v", rounds, q.CorrectID, pool, got)
		}
		rounds++
	}
	if rounds != 9 {
		t.Fatalf("expected 9 rounds for 10 items, got %d", rounds)
	}
}

func TestScriptedRandomnessPicksExactCandidates(t *testing.T) {
	game := app.ResumeGame([]int{10, 20, 30, 40, 50}, 0, 0, memory.NewScoreStore(),
		app.WithRandomizer(&scriptedRand{values: []int{4, 0, 0, 0, 2}}))

	q, err := game.GenerateQuestion()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	want := []int{50, 20, 30, 40}
	for i, id := range want {
		if q.CandidateIDs[i] != id {
			t.Fatalf("expected candidates %v, got %v", want, q.CandidateIDs)
		}
	}
	if q.CorrectID != 30 {
		t.Fatalf("expected correct 30, got %d", q.CorrectID)
	}
}

func TestCorrectAnswerBelowHighKeepsHigh(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, 3, 5)
	game := app.ResumeGame([]int{1, 2, 3}, 3, 5, store, app.WithRandomizer(&scriptedRand{}))

	q, _ := game.GenerateQuestion()
	outcome, err := game.RecordAnswer(ctx, q.CorrectID)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !outcome.Correct || outcome.Scores.Current != 4 || outcome.Scores.High != 5 {
		t.Fatalf("expected 4/5, got %+v", outcome)
	}
	assertStored(t, store, 4, 5)
}

func TestCorrectAnswerAboveHighRaisesHigh(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, 5, 5)
	game := app.ResumeGame([]int{1, 2, 3}, 5, 5, store, app.WithRandomizer(&scriptedRand{}))

	q, _ := game.GenerateQuestion()
	outcome, err := game.RecordAnswer(ctx, q.CorrectID)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if outcome.Scores.Current != 6 || outcome.Scores.High != 6 {
		t.Fatalf("expected 6/6, got %+v", outcome.Scores)
	}
	assertStored(t, store, 6, 6)
}

func TestNewGameResetsCurrentKeepsHigh(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, 7, 12)

	game, err := app.NewGame(ctx, newCatalog(4), store)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	if s := game.Scores(); s.Current != 0 || s.High != 12 {
		t.Fatalf("expected 0/12, got %+v", s)
	}
	assertStored(t, store, 0, 12)
}

func TestWrongAnswerRetiresCorrectItemOnly(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, 2, 9)
	game := app.ResumeGame([]int{1, 2, 3, 4, 5}, 2, 9, store, app.WithRandomizer(&scriptedRand{}))

	q, _ := game.GenerateQuestion()
	if q.CorrectID != 1 {
		t.Fatalf("expected scripted correct 1, got %d", q.CorrectID)
	}
	outcome, err := game.RecordAnswer(ctx, 2)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if outcome.Correct || outcome.Scores.Current != 2 || outcome.CorrectID != 1 || outcome.ChosenID != 2 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	pool := game.Pool()
	if len(pool) != 4 || contains(pool, 1) || !contains(pool, 2) {
		t.Fatalf("expected only the correct item retired, got %v", pool)
	}
	assertStored(t, store, 2, 9)
}

func TestDistractorsMayReappear(t *testing.T) {
	ctx := context.Background()
	game := app.ResumeGame([]int{1, 2, 3}, 0, 0, memory.NewScoreStore(), app.WithRandomizer(&scriptedRand{}))

	first, _ := game.GenerateQuestion()
	if _, err := game.RecordAnswer(ctx, first.CorrectID); err != nil {
		t.Fatalf("record: %v", err)
	}
	second, err := game.GenerateQuestion()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if contains(second.CandidateIDs, first.CorrectID) {
		t.Fatalf("retired item %d reappeared in %v", first.CorrectID, second.CandidateIDs)
	}
	for _, id := range first.CandidateIDs {
		if id != first.CorrectID && !contains(second.CandidateIDs, id) {
			t.Fatalf("expected distractor %d to stay eligible, got %v", id, second.CandidateIDs)
		}
	}
}

func TestPreconditionViolations(t *testing.T) {
	ctx := context.Background()
	game := app.ResumeGame([]int{1, 2, 3}, 0, 0, memory.NewScoreStore())

	if _, err := game.RecordAnswer(ctx, 1); !errors.Is(err, domain.ErrNoActiveQuestion) {
		t.Fatalf("expected no active question, got %v", err)
	}
	q, err := game.GenerateQuestion()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := game.GenerateQuestion(); !errors.Is(err, domain.ErrQuestionActive) {
		t.Fatalf("expected question active, got %v", err)
	}
	if _, err := game.RecordAnswer(ctx, 99); !errors.Is(err, domain.ErrNotACandidate) {
		t.Fatalf("expected not a candidate, got %v", err)
	}
	if game.Phase() != app.PhaseQuestionActive || len(game.Pool()) != 3 {
		t.Fatalf("rejected answer must not change state: phase=%s pool=%v", game.Phase(), game.Pool())
	}
	if _, err := game.RecordAnswer(ctx, q.CorrectID); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := game.RecordAnswer(ctx, q.CorrectID); !errors.Is(err, domain.ErrNoActiveQuestion) {
		t.Fatalf("expected second answer rejected, got %v", err)
	}
}

func TestIsGameOverIsIdempotent(t *testing.T) {
	game := app.ResumeGame([]int{1, 2}, 0, 0, memory.NewScoreStore())
	for i := 0; i < 3; i++ {
		if game.IsGameOver() {
			t.Fatalf("call %d: expected game to continue", i)
		}
	}

	over := app.ResumeGame([]int{1}, 4, 4, memory.NewScoreStore())
	for i := 0; i < 3; i++ {
		if !over.IsGameOver() {
			t.Fatalf("call %d: expected game over", i)
		}
	}
	if over.Phase() != app.PhaseGameOver {
		t.Fatalf("expected resumed single-item game to be over, got %s", over.Phase())
	}
}

func TestStoreFailureLeavesGameUntouched(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{ScoreStore: memory.NewScoreStore(), err: errors.New("disk full")}
	game := app.ResumeGame([]int{1, 2, 3}, 1, 1, store, app.WithRandomizer(&scriptedRand{}))

	q, _ := game.GenerateQuestion()
	if _, err := game.RecordAnswer(ctx, q.CorrectID); !errors.Is(err, store.err) {
		t.Fatalf("expected store error, got %v", err)
	}
	if game.Phase() != app.PhaseQuestionActive || len(game.Pool()) != 3 || game.Scores().Current != 1 {
		t.Fatalf("expected untouched game, phase=%s pool=%v scores=%+v", game.Phase(), game.Pool(), game.Scores())
	}

	store.err = nil
	if _, err := game.RecordAnswer(ctx, q.CorrectID); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestHighScoreFailureRestoresStoredCurrent(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{ScoreStore: seededStore(t, 1, 1), highErr: errors.New("read-only")}
	game := app.ResumeGame([]int{1, 2, 3}, 1, 1, store, app.WithRandomizer(&scriptedRand{}))

	q, _ := game.GenerateQuestion()
	if _, err := game.RecordAnswer(ctx, q.CorrectID); !errors.Is(err, store.highErr) {
		t.Fatalf("expected high score error, got %v", err)
	}
	if game.Phase() != app.PhaseQuestionActive || game.Scores().Current != 1 {
		t.Fatalf("expected untouched game, phase=%s scores=%+v", game.Phase(), game.Scores())
	}
	assertStored(t, store, 1, 1)
}

func TestGamesSharingStoreNeverLowerHigh(t *testing.T) {
	ctx := context.Background()
	store := memory.NewScoreStore()
	catalog := newCatalog(6)

	first, err := app.NewGame(ctx, catalog, store, app.WithRandomizer(&scriptedRand{}))
	if err != nil {
		t.Fatalf("first game: %v", err)
	}
	second, err := app.NewGame(ctx, catalog, store, app.WithRandomizer(&scriptedRand{}))
	if err != nil {
		t.Fatalf("second game: %v", err)
	}

	for i := 0; i < 3; i++ {
		q, _ := second.GenerateQuestion()
		if _, err := second.RecordAnswer(ctx, q.CorrectID); err != nil {
			t.Fatalf("second game answer: %v", err)
		}
	}
	if high, _ := store.GetHigh(ctx); high != 3 {
		t.Fatalf("expected stored high 3, got %d", high)
	}

	q, _ := first.GenerateQuestion()
	outcome, err := first.RecordAnswer(ctx, q.CorrectID)
	if err != nil {
		t.Fatalf("first game answer: %v", err)
	}
	if outcome.Scores.Current != 1 || outcome.Scores.High != 3 {
		t.Fatalf("expected 1/3 after first game scored, got %+v", outcome.Scores)
	}
	if high, _ := store.GetHigh(ctx); high != 3 {
		t.Fatalf("high score decreased from 3 to %d", high)
	}
}

func TestRestoreGameRereadsHighScore(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, 0, 8)

	game, err := app.RestoreGame(ctx, domain.Handoff{RemainingIDs: []int{3, 4, 5}, CurrentScore: 2}, store)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if s := game.Scores(); s.Current != 2 || s.High != 8 {
		t.Fatalf("expected 2/8, got %+v", s)
	}
	h := game.Handoff()
	if h.CurrentScore != 2 || len(h.RemainingIDs) != 3 {
		t.Fatalf("unexpected handoff %+v", h)
	}
}

func TestHighScoreNeverDecreasesAcrossGames(t *testing.T) {
	ctx := context.Background()
	store := memory.NewScoreStore()
	catalog := newCatalog(6)
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	prevHigh := 0
	for g := 0; g < 3; g++ {
		game, err := app.NewGame(ctx, catalog, store, app.WithRandomizer(rnd))
		if err != nil {
			t.Fatalf("new game: %v", err)
		}
		for !game.IsGameOver() {
			q, err := game.GenerateQuestion()
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			outcome, err := game.RecordAnswer(ctx, q.CandidateIDs[rnd.Intn(len(q.CandidateIDs))])
			if err != nil {
				t.Fatalf("record: %v", err)
			}
			if outcome.Scores.High < prevHigh {
				t.Fatalf("high score decreased from %d to %d", prevHigh, outcome.Scores.High)
			}
			if outcome.Scores.Current > outcome.Scores.High {
				t.Fatalf("current %d exceeds high %d", outcome.Scores.Current, outcome.Scores.High)
			}
			prevHigh = outcome.Scores.High
		}
	}
}

func TestNewGameEmptyCatalog(t *testing.T) {
	_, err := app.NewGame(context.Background(), emptyCatalog{}, memory.NewScoreStore())
	if !errors.Is(err, domain.ErrEmptyCatalog) {
		t.Fatalf("expected empty catalog error, got %v", err)
	}
}

// scriptedRand returns the scripted values in order (modulo n), then zeros.
type scriptedRand struct {
	values []int
	next   int
}

func (r *scriptedRand) Intn(n int) int {
	if r.next >= len(r.values) {
		return 0
	}
	v := r.values[r.next] % n
	r.next++
	return v
}

type failingStore struct {
	app.ScoreStore
	err     error
	highErr error
}

func (s *failingStore) SetHigh(ctx context.Context, score int) error {
	if s.highErr != nil {
		return s.highErr
	}
	return s.ScoreStore.SetHigh(ctx, score)
}

func (s *failingStore) SetCurrent(ctx context.Context, score int) error {
	if s.err != nil {
		return s.err
	}
	return s.ScoreStore.SetCurrent(ctx, score)
}

type emptyCatalog struct{}

func (emptyCatalog) AllItemIDs(context.Context) ([]int, error) { return nil, nil }
func (emptyCatalog) ItemByID(context.Context, int) (domain.Item, error) {
	return domain.Item{}, domain.ErrItemNotFound
}

func newCatalog(n int) *memory.CatalogRepository {
	composers := []string{"Bach", "Beethoven", "Brahms", "Chopin", "Debussy", "Dvorak", "Handel", "Haydn", "Mozart", "Vivaldi"}
	items := make([]domain.Item, 0, n)
	for i := 1; i <= n; i++ {
		name := composers[(i-1)%len(composers)]
		items = append(items, domain.Item{
			ID:       i,
			Composer: name,
			Title:    name + " sample",
			URI:      "file:///samples/" + name + ".mp3",
			Portrait: name,
		})
	}
	return memory.NewCatalogRepository(memory.NewStaticCatalogLoader(items), time.Minute)
}

func seededStore(t *testing.T, current, high int) *memory.ScoreStore {
	t.Helper()
	store := memory.NewScoreStore()
	_ = store.SetCurrent(context.Background(), current)
	_ = store.SetHigh(context.Background(), high)
	return store
}

func assertStored(t *testing.T, store app.ScoreStore, current, high int) {
	t.Helper()
	gotCurrent, _ := store.GetCurrent(context.Background())
	gotHigh, _ := store.GetHigh(context.Background())
	if gotCurrent != current || gotHigh != high {
		t.Fatalf("expected stored %d/%d, got %d/%d", current, high, gotCurrent, gotHigh)
	}
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

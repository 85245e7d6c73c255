package file

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"classical-quiz-service/internal/domain"
)

type handoffEntry struct {
	RemainingIDs []int     `yaml:"remainingIds,flow"`
	CurrentScore int       `yaml:"currentScore"`
	SavedAt      time.Time `yaml:"savedAt"`
}

type handoffFile struct {
	Games map[string]handoffEntry `yaml:"games"`
}

// HandoffStore keeps carried-over games in a YAML file next to the scores, so
// `play --resume` works without Redis. Entries older than the TTL are ignored and
// pruned on the next write.
type HandoffStore struct {
	path string
	ttl  time.Duration
	now  func() time.Time
	mu   sync.Mutex
}

func NewHandoffStore(path string, ttl time.Duration) *HandoffStore {
	return &HandoffStore{path: path, ttl: ttl, now: time.Now}
}

// HandoffPathFor places the handoff file in the same directory as the score file.
func HandoffPathFor(scorePath string) string {
	return filepath.Join(filepath.Dir(scorePath), "handoffs.yaml")
}

func (s *HandoffStore) Save(_ context.Context, gameID string, handoff domain.Handoff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(func(f *handoffFile) {
		f.Games[gameID] = handoffEntry{
			RemainingIDs: append([]int(nil), handoff.RemainingIDs...),
			CurrentScore: handoff.CurrentScore,
			SavedAt:      s.now().UTC(),
		}
	})
}

func (s *HandoffStore) Load(_ context.Context, gameID string) (domain.Handoff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.read()
	if err != nil {
		return domain.Handoff{}, err
	}
	entry, ok := f.Games[gameID]
	if !ok || s.expired(entry) {
		return domain.Handoff{}, domain.ErrHandoffNotFound
	}
	return domain.Handoff{RemainingIDs: entry.RemainingIDs, CurrentScore: entry.CurrentScore}, nil
}

func (s *HandoffStore) Delete(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(func(f *handoffFile) { delete(f.Games, gameID) })
}

func (s *HandoffStore) expired(entry handoffEntry) bool {
	return s.ttl > 0 && s.now().Sub(entry.SavedAt) > s.ttl
}

func (s *HandoffStore) read() (handoffFile, error) {
	var f handoffFile
	if err := readYAML(s.path, &f); err != nil {
		return f, err
	}
	if f.Games == nil {
		f.Games = make(map[string]handoffEntry)
	}
	return f, nil
}

func (s *HandoffStore) update(fn func(*handoffFile)) error {
	f, err := s.read()
	if err != nil {
		return err
	}
	fn(&f)
	for id, entry := range f.Games {
		if s.expired(entry) {
			delete(f.Games, id)
		}
	}
	return writeYAML(s.path, f)
}

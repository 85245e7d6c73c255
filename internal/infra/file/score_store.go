package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

type scoreFile struct {
	Current int `yaml:"currentScore"`
	High    int `yaml:"highScore"`
}

// ScoreStore persists scores to a small YAML file so they survive restarts of the
// terminal game.
type ScoreStore struct {
	path string
	mu   sync.Mutex
}

func NewScoreStore(path string) *ScoreStore {
	return &ScoreStore{path: path}
}

// DefaultScorePath is ~/.classical-quiz/scores.yaml.
func DefaultScorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".classical-quiz", "scores.yaml"), nil
}

func (s *ScoreStore) GetCurrent(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.read()
	return f.Current, err
}

func (s *ScoreStore) SetCurrent(_ context.Context, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(func(f *scoreFile) { f.Current = score })
}

func (s *ScoreStore) GetHigh(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.read()
	return f.High, err
}

func (s *ScoreStore) SetHigh(_ context.Context, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(func(f *scoreFile) { f.High = score })
}

func (s *ScoreStore) read() (scoreFile, error) {
	var f scoreFile
	err := readYAML(s.path, &f)
	return f, err
}

func (s *ScoreStore) update(fn func(*scoreFile)) error {
	f, err := s.read()
	if err != nil {
		return err
	}
	fn(&f)
	return writeYAML(s.path, f)
}

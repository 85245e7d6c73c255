package domain

import "errors"

var (
	// ErrItemNotFound is returned when an item ID has no catalog entry.
	ErrItemNotFound = errors.New("sample not found")
	// ErrEmptyCatalog indicates the catalog has no items to build a game from.
	ErrEmptyCatalog = errors.New("catalog is empty")
	// ErrGameOver is returned when fewer than two items remain in the pool.
	ErrGameOver = errors.New("game over")
	// ErrQuestionActive is returned when a question is requested before the active one is answered.
	ErrQuestionActive = errors.New("question already active")
	// ErrNoActiveQuestion is returned when an answer arrives with no question on screen.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrNotACandidate indicates the chosen item was not offered in the active question.
	ErrNotACandidate = errors.New("chosen item is not a candidate")
	// ErrGameNotFound is returned for unknown game IDs.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameInUse is returned when resuming a game another instance is still playing.
	ErrGameInUse = errors.New("game is being played elsewhere")
	// ErrHandoffNotFound indicates there is no carried-over state to resume from.
	ErrHandoffNotFound = errors.New("no saved game to resume")
)

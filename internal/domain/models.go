package domain

// Item is a single catalog entry: one audio sample and the composer it belongs to.
type Item struct {
	ID       int    `json:"id" yaml:"id"`
	Composer string `json:"composer" yaml:"composer"`
	Title    string `json:"title" yaml:"title"`
	URI      string `json:"uri" yaml:"uri"`
	Portrait string `json:"portrait" yaml:"portrait"`
}

// Label is the text shown on an answer button.
func (i Item) Label() string {
	return i.Composer
}

// Question is a snapshot of one round: the candidates shown to the player and the one being played.
type Question struct {
	CandidateIDs []int `json:"candidateIds"`
	CorrectID    int   `json:"correctId"`
}

// ScoreState holds the running score of the current game and the all-time high score.
type ScoreState struct {
	Current int `json:"currentScore"`
	High    int `json:"highScore"`
}

// Outcome summarizes a resolved round.
type Outcome struct {
	Correct   bool       `json:"correct"`
	ChosenID  int        `json:"chosenId"`
	CorrectID int        `json:"correctId"`
	Scores    ScoreState `json:"scores"`
	GameOver  bool       `json:"gameOver"`
}

// Handoff is what survives between rounds when the game crosses a process boundary.
// The high score is never carried; it is re-read from the score store.
type Handoff struct {
	RemainingIDs []int `json:"remainingIds"`
	CurrentScore int   `json:"currentScore"`
}

// Choice is a candidate as presented to a player.
type Choice struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

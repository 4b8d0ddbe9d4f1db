package models

// UserStats is the derived contribution snapshot of a user.
type UserStats struct {
	Posts int64 `json:"posts"`
	GotIt int64 `json:"got_it"`
	Gave  int64 `json:"gave"`
}

// Total is the score used for level computation.
func (s UserStats) Total() int64 {
	return s.Posts + s.GotIt + s.Gave
}

// LevelInfo describes the level a score falls into and the progress to the next one.
type LevelInfo struct {
	Level      int     `json:"level"`
	Badge      string  `json:"badge"`
	Title      string  `json:"title"`
	TotalScore int64   `json:"total_score"`
	Progress   float64 `json:"progress"`
	NextLevel  *int    `json:"next_level"`
	NextTitle  *string `json:"next_title"`
}

// UserProfile is a user with their stats and level attached.
type UserProfile struct {
	*User
	Stats     UserStats `json:"stats"`
	LevelInfo LevelInfo `json:"level_info"`
}

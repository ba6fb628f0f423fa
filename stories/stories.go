// Package stories holds the story resource and its ownership rules. Every
// read, update, and delete re-checks that the requesting account owns the
// story, on top of the session middleware's authentication check.
package stories

import "time"

type Story struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"index;not null"` // owning account
	Title     string
	Theme     string
	Character string
	Content   string `gorm:"type:text"`
	ImageURL  string
	AudioURL  string
	Favorite  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GenerateRequest is what a user submits to get a new story.
type GenerateRequest struct {
	Theme     string `json:"theme"`
	Character string `json:"character"`
}

// Generator produces story text from a theme and character description. The
// AI backend behind it is an external collaborator.
type Generator interface {
	GenerateStory(theme, character string) (title, content string, err error)
	ContinueStory(content string) (continuation string, err error)
}

// Illustrator produces an illustration for a story and returns its URL.
type Illustrator interface {
	Illustrate(title, content string) (imageURL string, err error)
}

// Narrator produces a text-to-speech narration and returns its URL.
type Narrator interface {
	Narrate(content string) (audioURL string, err error)
}

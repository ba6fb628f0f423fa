// Package localgen is an offline stand-in for the AI story, image, and
// speech backends. It produces deterministic placeholder content so the
// rest of the stack can run without external service credentials.
package localgen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) GenerateStory(theme, character string) (string, string, error) {
	title := fmt.Sprintf("The %s Adventure", titleCase(theme))
	content := fmt.Sprintf(
		"Once upon a time, %s set off into a world of %s. "+
			"Every step brought a new wonder, and every wonder a new friend.",
		character, theme,
	)
	return title, content, nil
}

func (g *Generator) ContinueStory(content string) (string, error) {
	return "And just when the day seemed over, another door creaked open.", nil
}

type Illustrator struct{}

func NewIllustrator() *Illustrator {
	return &Illustrator{}
}

func (i *Illustrator) Illustrate(title, content string) (string, error) {
	return "/static/illustrations/" + uuid.New().String() + ".png", nil
}

type Narrator struct{}

func NewNarrator() *Narrator {
	return &Narrator{}
}

func (n *Narrator) Narrate(content string) (string, error) {
	return "/static/audio/" + uuid.New().String() + ".mp3", nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

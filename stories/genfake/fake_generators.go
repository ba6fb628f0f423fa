package fakegenerators

import (
	"fmt"
	"sync/atomic"

	"github.com/storytail/storytail-server/stories"
)

var (
	_ stories.Generator   = (*FakeGenerator)(nil)
	_ stories.Illustrator = (*FakeIllustrator)(nil)
	_ stories.Narrator    = (*FakeNarrator)(nil)
)

// FakeGenerator returns deterministic story text.
type FakeGenerator struct {
	Err   error
	calls atomic.Int64
}

func NewFakeGenerator() *FakeGenerator {
	return &FakeGenerator{}
}

func (g *FakeGenerator) GenerateStory(theme, character string) (string, string, error) {
	if g.Err != nil {
		return "", "", g.Err
	}
	n := g.calls.Add(1)
	title := fmt.Sprintf("The %s Adventure", theme)
	content := fmt.Sprintf("Once upon a time, %s set out on a %s adventure. (story %d)", character, theme, n)
	return title, content, nil
}

func (g *FakeGenerator) ContinueStory(string) (string, error) {
	if g.Err != nil {
		return "", g.Err
	}
	return "And then the adventure continued into the night.", nil
}

type FakeIllustrator struct{ Err error }

func (i *FakeIllustrator) Illustrate(title, _ string) (string, error) {
	if i.Err != nil {
		return "", i.Err
	}
	return "https://cdn.example.com/illustrations/" + title + ".png", nil
}

type FakeNarrator struct{ Err error }

func (n *FakeNarrator) Narrate(string) (string, error) {
	if n.Err != nil {
		return "", n.Err
	}
	return "https://cdn.example.com/narrations/story.mp3", nil
}

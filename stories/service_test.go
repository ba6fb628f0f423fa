package stories_test

import (
	"context"
	"testing"

	apperrors "github.com/storytail/storytail-server/internal/errors"
	"github.com/storytail/storytail-server/stories"
	fakegenerators "github.com/storytail/storytail-server/stories/genfake"
	fakestoryrepo "github.com/storytail/storytail-server/stories/repofake"
	"github.com/stretchr/testify/require"
)

const (
	ownerID    = "account-owner"
	intruderID = "account-intruder"
)

func setupService(t *testing.T) (*stories.Service, *fakestoryrepo.FakeStoryRepo) {
	t.Helper()
	repo := fakestoryrepo.NewFakeStoryRepo()
	service, err := stories.NewService(repo, fakegenerators.NewFakeGenerator(), &fakegenerators.FakeIllustrator{}, &fakegenerators.FakeNarrator{})
	require.NoError(t, err)
	return service, repo
}

func generate(t *testing.T, service *stories.Service, accountID string) *stories.Story {
	t.Helper()
	story, err := service.Generate(context.Background(), accountID, stories.GenerateRequest{
		Theme:     "jungle",
		Character: "a curious fox",
	})
	require.NoError(t, err)
	return story
}

func TestGenerateAndGet(t *testing.T) {
	service, _ := setupService(t)
	ctx := context.Background()

	story := generate(t, service, ownerID)
	require.Equal(t, ownerID, story.UserID)
	require.NotEmpty(t, story.Title)
	require.NotEmpty(t, story.Content)

	got, err := service.Get(ctx, ownerID, story.ID)
	require.NoError(t, err)
	require.Equal(t, story.ID, got.ID)
}

func TestGenerateValidatesInput(t *testing.T) {
	service, _ := setupService(t)

	_, err := service.Generate(context.Background(), ownerID, stories.GenerateRequest{Theme: "jungle"})
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestForeignStoryIsNotFound(t *testing.T) {
	service, _ := setupService(t)
	ctx := context.Background()
	story := generate(t, service, ownerID)

	// Every operation reports another account's story as absent, never as
	// forbidden.
	_, err := service.Get(ctx, intruderID, story.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = service.Extend(ctx, intruderID, story.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = service.SetFavorite(ctx, intruderID, story.ID, true)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	err = service.Delete(ctx, intruderID, story.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	// The owner is unaffected.
	_, err = service.Get(ctx, ownerID, story.ID)
	require.NoError(t, err)
}

func TestMissingStoryMatchesForeignStory(t *testing.T) {
	service, _ := setupService(t)
	ctx := context.Background()
	story := generate(t, service, ownerID)

	_, foreignErr := service.Get(ctx, intruderID, story.ID)
	_, missingErr := service.Get(ctx, ownerID, "no-such-story")
	require.Equal(t, apperrors.UserMessage(foreignErr), apperrors.UserMessage(missingErr))
}

func TestExtendAppendsContinuation(t *testing.T) {
	service, _ := setupService(t)
	ctx := context.Background()
	story := generate(t, service, ownerID)

	extended, err := service.Extend(ctx, ownerID, story.ID)
	require.NoError(t, err)
	require.Contains(t, extended.Content, story.Content)
	require.Greater(t, len(extended.Content), len(story.Content))
}

func TestFavoriteAndDelete(t *testing.T) {
	service, _ := setupService(t)
	ctx := context.Background()
	story := generate(t, service, ownerID)

	favorited, err := service.SetFavorite(ctx, ownerID, story.ID, true)
	require.NoError(t, err)
	require.True(t, favorited.Favorite)

	require.NoError(t, service.Delete(ctx, ownerID, story.ID))
	_, err = service.Get(ctx, ownerID, story.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListReturnsOnlyOwnStories(t *testing.T) {
	service, _ := setupService(t)
	ctx := context.Background()

	generate(t, service, ownerID)
	generate(t, service, ownerID)
	generate(t, service, intruderID)

	list, err := service.List(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, story := range list {
		require.Equal(t, ownerID, story.UserID)
	}
}

func TestIllustrateAndNarrate(t *testing.T) {
	service, _ := setupService(t)
	ctx := context.Background()
	story := generate(t, service, ownerID)

	illustrated, err := service.Illustrate(ctx, ownerID, story.ID)
	require.NoError(t, err)
	require.NotEmpty(t, illustrated.ImageURL)

	narrated, err := service.Narrate(ctx, ownerID, story.ID)
	require.NoError(t, err)
	require.NotEmpty(t, narrated.AudioURL)
}

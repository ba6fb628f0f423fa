package stories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	apperrors "github.com/storytail/storytail-server/internal/errors"
)

// Service wraps the repo with ownership checks and the generation
// collaborators. A story belonging to another account is reported as absent,
// never as forbidden, so story IDs cannot be probed.
type Service struct {
	repo        Repo
	generator   Generator
	illustrator Illustrator
	narrator    Narrator
	logger      zerolog.Logger
	nowFunc     func() time.Time
}

type ServiceOption func(*Service)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(repo Repo, generator Generator, illustrator Illustrator, narrator Narrator, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[stories.NewService] repo is required")
	}
	if generator == nil {
		return nil, errors.New("[stories.NewService] generator is required")
	}

	s := &Service{
		repo:        repo,
		generator:   generator,
		illustrator: illustrator,
		narrator:    narrator,
		logger:      zerolog.Nop(),
		nowFunc:     time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Generate creates a new story for the account from a theme and character.
func (s *Service) Generate(ctx context.Context, accountID string, req GenerateRequest) (*Story, error) {
	if req.Theme == "" || req.Character == "" {
		return nil, apperrors.ErrValidation
	}

	title, content, err := s.generator.GenerateStory(req.Theme, req.Character)
	if err != nil {
		s.logger.Error().Err(err).Str("account", accountID).Msg("story generation failed")
		return nil, apperrors.ErrInternal
	}

	now := s.nowFunc()
	story := &Story{
		ID:        uuid.New().String(),
		UserID:    accountID,
		Title:     title,
		Theme:     req.Theme,
		Character: req.Character,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, story); err != nil {
		s.logger.Error().Err(err).Str("account", accountID).Msg("story create failed")
		return nil, apperrors.ErrInternal
	}
	return story, nil
}

// Get returns a story the account owns.
func (s *Service) Get(ctx context.Context, accountID, storyID string) (*Story, error) {
	return s.owned(ctx, accountID, storyID)
}

// List returns all of the account's stories, newest first.
func (s *Service) List(ctx context.Context, accountID string) ([]*Story, error) {
	list, err := s.repo.ListByUser(ctx, accountID)
	if err != nil {
		s.logger.Error().Err(err).Str("account", accountID).Msg("story list failed")
		return nil, apperrors.ErrInternal
	}
	return list, nil
}

// Extend appends a generated continuation to an owned story.
func (s *Service) Extend(ctx context.Context, accountID, storyID string) (*Story, error) {
	story, err := s.owned(ctx, accountID, storyID)
	if err != nil {
		return nil, err
	}

	continuation, err := s.generator.ContinueStory(story.Content)
	if err != nil {
		s.logger.Error().Err(err).Str("story", storyID).Msg("story continuation failed")
		return nil, apperrors.ErrInternal
	}

	story.Content = story.Content + "\n\n" + continuation
	story.UpdatedAt = s.nowFunc()
	if err := s.repo.Update(ctx, story); err != nil {
		s.logger.Error().Err(err).Str("story", storyID).Msg("story update failed")
		return nil, apperrors.ErrInternal
	}
	return story, nil
}

// SetFavorite flips the favorite flag on an owned story.
func (s *Service) SetFavorite(ctx context.Context, accountID, storyID string, favorite bool) (*Story, error) {
	story, err := s.owned(ctx, accountID, storyID)
	if err != nil {
		return nil, err
	}

	story.Favorite = favorite
	story.UpdatedAt = s.nowFunc()
	if err := s.repo.Update(ctx, story); err != nil {
		s.logger.Error().Err(err).Str("story", storyID).Msg("story update failed")
		return nil, apperrors.ErrInternal
	}
	return story, nil
}

// Delete removes an owned story.
func (s *Service) Delete(ctx context.Context, accountID, storyID string) error {
	if _, err := s.owned(ctx, accountID, storyID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, storyID); err != nil {
		s.logger.Error().Err(err).Str("story", storyID).Msg("story delete failed")
		return apperrors.ErrInternal
	}
	return nil
}

// Illustrate attaches a generated illustration to an owned story.
func (s *Service) Illustrate(ctx context.Context, accountID, storyID string) (*Story, error) {
	if s.illustrator == nil {
		return nil, apperrors.ErrInternal
	}
	story, err := s.owned(ctx, accountID, storyID)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.illustrator.Illustrate(story.Title, story.Content)
	if err != nil {
		s.logger.Error().Err(err).Str("story", storyID).Msg("illustration failed")
		return nil, apperrors.ErrInternal
	}
	story.ImageURL = imageURL
	story.UpdatedAt = s.nowFunc()
	if err := s.repo.Update(ctx, story); err != nil {
		return nil, apperrors.ErrInternal
	}
	return story, nil
}

// Narrate attaches a generated narration to an owned story.
func (s *Service) Narrate(ctx context.Context, accountID, storyID string) (*Story, error) {
	if s.narrator == nil {
		return nil, apperrors.ErrInternal
	}
	story, err := s.owned(ctx, accountID, storyID)
	if err != nil {
		return nil, err
	}

	audioURL, err := s.narrator.Narrate(story.Content)
	if err != nil {
		s.logger.Error().Err(err).Str("story", storyID).Msg("narration failed")
		return nil, apperrors.ErrInternal
	}
	story.AudioURL = audioURL
	story.UpdatedAt = s.nowFunc()
	if err := s.repo.Update(ctx, story); err != nil {
		return nil, apperrors.ErrInternal
	}
	return story, nil
}

// owned fetches a story and verifies ownership. Absent and foreign stories
// are indistinguishable to the caller.
func (s *Service) owned(ctx context.Context, accountID, storyID string) (*Story, error) {
	story, err := s.repo.GetByID(ctx, storyID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		s.logger.Error().Err(err).Str("story", storyID).Msg("story lookup failed")
		return nil, apperrors.ErrInternal
	}
	if story.UserID != accountID {
		s.logger.Warn().Str("story", storyID).Str("account", accountID).Msg("cross-account story access")
		return nil, apperrors.ErrNotFound
	}
	return story, nil
}

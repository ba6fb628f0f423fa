package fakestoryrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/storytail/storytail-server/internal/errors"
	"github.com/storytail/storytail-server/stories"
)

var _ stories.Repo = (*FakeStoryRepo)(nil)

type FakeStoryRepo struct {
	stories map[string]*stories.Story
	lock    sync.RWMutex
}

func NewFakeStoryRepo() *FakeStoryRepo {
	return &FakeStoryRepo{stories: make(map[string]*stories.Story)}
}

func (sr *FakeStoryRepo) Create(_ context.Context, story *stories.Story) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if story.ID == "" {
		story.ID = uuid.New().String()
	}
	copied := *story
	sr.stories[story.ID] = &copied
	return nil
}

func (sr *FakeStoryRepo) Update(_ context.Context, story *stories.Story) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if _, ok := sr.stories[story.ID]; !ok {
		return apperrors.ErrNotFound
	}
	copied := *story
	sr.stories[story.ID] = &copied
	return nil
}

func (sr *FakeStoryRepo) Delete(_ context.Context, id string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	delete(sr.stories, id)
	return nil
}

func (sr *FakeStoryRepo) GetByID(_ context.Context, id string) (*stories.Story, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	story, ok := sr.stories[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *story
	return &copied, nil
}

func (sr *FakeStoryRepo) ListByUser(_ context.Context, userID string) ([]*stories.Story, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	var list []*stories.Story
	for _, story := range sr.stories {
		if story.UserID == userID {
			copied := *story
			list = append(list, &copied)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

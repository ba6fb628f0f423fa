package stories

import "context"

type Repo interface {
	Create(ctx context.Context, story *Story) error
	Update(ctx context.Context, story *Story) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*Story, error)
	ListByUser(ctx context.Context, userID string) ([]*Story, error)
}

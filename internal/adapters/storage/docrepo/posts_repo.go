package docrepo

import (
	"context"

	"apa-backoffice/internal/domain/posts"
	"apa-backoffice/internal/ports/docstore"
)

type PostsRepo struct {
	col Collection[posts.Post]
}

func NewPostsRepo(s docstore.Store) *PostsRepo {
	return &PostsRepo{col: NewCollection[posts.Post](s, posts.Collection)}
}

func (r *PostsRepo) Create(ctx context.Context, p posts.Post) error {
	return r.col.Put(ctx, p.ID, p)
}

func (r *PostsRepo) Patch(ctx context.Context, id string, fields map[string]any) (posts.Post, error) {
	return r.col.Patch(ctx, id, fields)
}

func (r *PostsRepo) GetByID(ctx context.Context, id string) (posts.Post, error) {
	return r.col.Get(ctx, id)
}

func (r *PostsRepo) List(ctx context.Context) ([]posts.Post, error) {
	return r.col.All(ctx)
}

func (r *PostsRepo) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}

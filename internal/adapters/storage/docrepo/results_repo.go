package docrepo

import (
	"context"

	"apa-backoffice/internal/domain/dashboard"
	"apa-backoffice/internal/ports/docstore"
)

type ResultsRepo struct {
	col Collection[dashboard.MonthlyResult]
}

func NewResultsRepo(s docstore.Store) *ResultsRepo {
	return &ResultsRepo{col: NewCollection[dashboard.MonthlyResult](s, dashboard.ResultsCollection)}
}

func (r *ResultsRepo) Put(ctx context.Context, res dashboard.MonthlyResult) error {
	return r.col.Put(ctx, res.ID, res)
}

func (r *ResultsRepo) List(ctx context.Context) ([]dashboard.MonthlyResult, error) {
	return r.col.All(ctx)
}

// Package currencies serves the immutable currency reference data.
package currencies

import (
	"context"

	"github.com/moneta-app/moneta/internal/ledger"
)

type Service struct {
	repo ledger.Repository
}

func NewService(repo ledger.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int32) (ledger.Currency, error) {
	return s.repo.GetCurrency(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]ledger.Currency, error) {
	return s.repo.ListCurrencies(ctx)
}

package tags

import (
	"context"

	"github.com/google/uuid"

	"github.com/moneta-app/moneta/internal/ledger"
)

type Service struct {
	repo ledger.Repository
}

func NewService(repo ledger.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, name string) (ledger.Tag, error) {
	var tag ledger.Tag
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ledger.TxRepository) error {
		var err error
		tag, err = tx.InsertTag(ctx, name)
		return err
	})
	if err != nil {
		return ledger.Tag{}, err
	}
	return tag, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (ledger.Tag, error) {
	return s.repo.GetTag(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]ledger.Tag, error) {
	return s.repo.ListTags(ctx)
}

func (s *Service) Rename(ctx context.Context, id uuid.UUID, name string) (uuid.UUID, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ledger.TxRepository) error {
		return tx.UpdateTagName(ctx, id, name)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ledger.TxRepository) error {
		return tx.DeleteTag(ctx, id)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

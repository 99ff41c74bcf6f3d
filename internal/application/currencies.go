package application

import (
	"context"
	"fmt"

	"exchange-rates-service/internal/domain"
)

// CurrencyService owns currency reference data: explicit registration with
// code normalization, name/symbol edits, no other mutation.
type CurrencyService struct {
	repo CurrencyRepo
}

func NewCurrencyService(repo CurrencyRepo) *CurrencyService {
	return &CurrencyService{repo: repo}
}

func (s *CurrencyService) Register(ctx context.Context, code, name, symbol string) (domain.Currency, error) {
	code = domain.NormalizeCode(code)
	if !domain.ValidCode(code) {
		return domain.Currency{}, fmt.Errorf("%w: currency code must be exactly 3 letters", domain.ErrValidation)
	}
	if name == "" {
		return domain.Currency{}, fmt.Errorf("%w: currency name is required", domain.ErrValidation)
	}
	return s.repo.Create(ctx, domain.Currency{Code: code, Name: name, Symbol: symbol})
}

func (s *CurrencyService) Get(ctx context.Context, code string) (domain.Currency, error) {
	return s.repo.GetByCode(ctx, domain.NormalizeCode(code))
}

func (s *CurrencyService) List(ctx context.Context) ([]domain.Currency, error) {
	return s.repo.ListAll(ctx)
}

// Rename updates name and symbol only; the code is immutable after creation.
func (s *CurrencyService) Rename(ctx context.Context, code, name, symbol string) (domain.Currency, error) {
	cur, err := s.repo.GetByCode(ctx, domain.NormalizeCode(code))
	if err != nil {
		return domain.Currency{}, err
	}
	if name != "" {
		cur.Name = name
	}
	if symbol != "" {
		cur.Symbol = symbol
	}
	return s.repo.Update(ctx, cur)
}

func (s *CurrencyService) Delete(ctx context.Context, code string) error {
	return s.repo.Delete(ctx, domain.NormalizeCode(code))
}

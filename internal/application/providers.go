package application

import (
	"context"
	"errors"
	"fmt"

	"exchange-rates-service/internal/domain"
)

// ProviderService manages provider configuration. Priority uniqueness is
// enforced here, not by the storage constraint alone, so the rejection can
// name the provider currently holding the colliding priority.
type ProviderService struct {
	repo ProviderConfigRepo
}

func NewProviderService(repo ProviderConfigRepo) *ProviderService {
	return &ProviderService{repo: repo}
}

func (s *ProviderService) List(ctx context.Context) ([]domain.ProviderConfig, error) {
	return s.repo.ListAll(ctx)
}

func (s *ProviderService) Get(ctx context.Context, name domain.ProviderName) (domain.ProviderConfig, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *ProviderService) Create(ctx context.Context, cfg domain.ProviderConfig) (domain.ProviderConfig, error) {
	if err := s.validate(ctx, cfg, ""); err != nil {
		return domain.ProviderConfig{}, err
	}
	return s.repo.Create(ctx, cfg)
}

// Update rewrites priority and active state for an existing provider. Setting
// a provider's priority to its own current value is a no-op, not a conflict.
func (s *ProviderService) Update(ctx context.Context, cfg domain.ProviderConfig) (domain.ProviderConfig, error) {
	if _, err := s.repo.GetByName(ctx, cfg.Name); err != nil {
		return domain.ProviderConfig{}, err
	}
	if err := s.validate(ctx, cfg, cfg.Name); err != nil {
		return domain.ProviderConfig{}, err
	}
	return s.repo.Update(ctx, cfg)
}

func (s *ProviderService) Delete(ctx context.Context, name domain.ProviderName) error {
	return s.repo.Delete(ctx, name)
}

func (s *ProviderService) validate(ctx context.Context, cfg domain.ProviderConfig, self domain.ProviderName) error {
	if !cfg.Name.Valid() {
		return fmt.Errorf("%w: unknown provider name %q", domain.ErrValidation, cfg.Name)
	}
	if cfg.Priority <= 0 {
		return fmt.Errorf("%w: priority must be a positive integer", domain.ErrValidation)
	}
	holder, err := s.repo.GetByPriority(ctx, cfg.Priority)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check priority %d: %w", cfg.Priority, err)
	case holder.Name == self:
		return nil
	default:
		return &domain.DuplicatePriorityError{Priority: cfg.Priority, Holder: holder.Name.Display()}
	}
}

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/reservaespacios/reservation-service/internal/core/domain"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

// CatalogService exposes the read side of spaces and organizations.
type CatalogService struct {
	spaces        ports.SpaceRepository
	organizations ports.OrganizationRepository
}

var _ ports.CatalogService = (*CatalogService)(nil)

func NewCatalogService(spaces ports.SpaceRepository, organizations ports.OrganizationRepository) *CatalogService {
	return &CatalogService{spaces: spaces, organizations: organizations}
}

func (s *CatalogService) Spaces(ctx context.Context) ([]domain.Space, error) {
	spaces, err := s.spaces.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing spaces: %w", err)
	}
	return spaces, nil
}

func (s *CatalogService) Space(ctx context.Context, id string) (*domain.Space, error) {
	space, err := s.spaces.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound(msgSpaceNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finding space: %w", err)
	}
	return space, nil
}

func (s *CatalogService) Organizations(ctx context.Context) ([]domain.Organization, error) {
	orgs, err := s.organizations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}
	return orgs, nil
}

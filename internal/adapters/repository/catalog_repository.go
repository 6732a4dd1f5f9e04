package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/reservaespacios/reservation-service/internal/core/domain"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

const spaceQuery = `
	SELECT s.id, s.name, s.description, s.capacity, s.allowed_days, s.open_time, s.close_time,
		t.id AS tag_id, t.name AS tag_name, t.color AS tag_color
	FROM spaces s
	LEFT JOIN space_tags t ON t.id = s.tag_id`

type spaceRow struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Description string         `db:"description"`
	Capacity    int            `db:"capacity"`
	AllowedDays pq.Int64Array  `db:"allowed_days"`
	OpenTime    string         `db:"open_time"`
	CloseTime   string         `db:"close_time"`
	TagID       sql.NullString `db:"tag_id"`
	TagName     sql.NullString `db:"tag_name"`
	TagColor    sql.NullString `db:"tag_color"`
}

func (row spaceRow) toDomain() domain.Space {
	space := domain.Space{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Capacity:    row.Capacity,
		AllowedDays: []int64(row.AllowedDays),
		OpenTime:    row.OpenTime,
		CloseTime:   row.CloseTime,
	}
	if space.AllowedDays == nil {
		space.AllowedDays = []int64{}
	}
	if row.TagID.Valid {
		space.Tag = &domain.SpaceTag{
			ID:    row.TagID.String,
			Name:  row.TagName.String,
			Color: row.TagColor.String,
		}
	}
	return space
}

type SpaceRepository struct {
	db *sqlx.DB
}

var _ ports.SpaceRepository = (*SpaceRepository)(nil)

func NewSpaceRepository(db *sqlx.DB) *SpaceRepository {
	return &SpaceRepository{db: db}
}

func (r *SpaceRepository) FindByID(ctx context.Context, id string) (*domain.Space, error) {
	var row spaceRow
	err := r.db.GetContext(ctx, &row, spaceQuery+` WHERE s.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding space %s: %w", id, err)
	}
	space := row.toDomain()
	return &space, nil
}

func (r *SpaceRepository) List(ctx context.Context) ([]domain.Space, error) {
	var rows []spaceRow
	if err := r.db.SelectContext(ctx, &rows, spaceQuery+` ORDER BY s.name`); err != nil {
		return nil, fmt.Errorf("listing spaces: %w", err)
	}
	spaces := make([]domain.Space, 0, len(rows))
	for _, row := range rows {
		spaces = append(spaces, row.toDomain())
	}
	return spaces, nil
}

type OrganizationRepository struct {
	db *sqlx.DB
}

var _ ports.OrganizationRepository = (*OrganizationRepository)(nil)

func NewOrganizationRepository(db *sqlx.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// FindByName matches case-insensitively.
func (r *OrganizationRepository) FindByName(ctx context.Context, name string) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.GetContext(ctx, &org, `
		SELECT id, name, active, description, monthly_hour_limit
		FROM organizations WHERE lower(name) = lower($1)`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding organization: %w", err)
	}
	return &org, nil
}

func (r *OrganizationRepository) List(ctx context.Context) ([]domain.Organization, error) {
	orgs := []domain.Organization{}
	err := r.db.SelectContext(ctx, &orgs, `
		SELECT id, name, active, description, monthly_hour_limit
		FROM organizations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}
	return orgs, nil
}

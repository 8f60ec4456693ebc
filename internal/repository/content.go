package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"slydes/viewer/internal/domain"
)

// Querier is the part of pgxpool.Pool the repository reads through
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type ContentRepository interface {
	LoadGraph(ctx context.Context, organizationSlug string) (*domain.Graph, error)
}

type contentRepository struct {
	db Querier
}

func NewContentRepository(db Querier) ContentRepository {
	return &contentRepository{
		db: db,
	}
}

func (r *contentRepository) LoadGraph(ctx context.Context, organizationSlug string) (*domain.Graph, error) {
	query := `
	SELECT slyde_public_id, data
	FROM slyde_content
	WHERE organization_slug = $1`

	var publicID string
	var data []byte
	err := r.db.QueryRow(ctx, query, organizationSlug).Scan(&publicID, &data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrContentNotFound, organizationSlug)
		}
		return nil, fmt.Errorf("failed to load content for %s: %w", organizationSlug, err)
	}

	var graph domain.Graph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, fmt.Errorf("failed to parse content for %s: %w", organizationSlug, err)
	}

	graph.OrganizationSlug = organizationSlug
	if graph.SlydePublicID == "" {
		graph.SlydePublicID = publicID
	}
	if err := graph.Validate(); err != nil {
		return nil, err
	}

	return &graph, nil
}

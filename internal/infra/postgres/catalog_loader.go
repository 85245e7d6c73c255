package postgres

import (
	"context"
	"fmt"

	"classical-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogLoader loads the sample catalog from the samples table.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadCatalog(ctx context.Context) ([]domain.Item, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, composer, title, uri, portrait FROM samples ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.Composer, &item.Title, &item.URI, &item.Portrait); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyCatalog
	}
	return items, nil
}

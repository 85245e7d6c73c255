package postgres

import (
	"context"
	"fmt"

	"classical-quiz-service/internal/domain"
	"github.com/samber/lo"
	"github.com/uptrace/bun"
)

type sampleRow struct {
	bun.BaseModel `bun:"table:samples"`

	ID       int    `bun:"id,pk"`
	Composer string `bun:"composer,notnull"`
	Title    string `bun:"title,notnull"`
	URI      string `bun:"uri,notnull"`
	Portrait string `bun:"portrait,notnull"`
}

// Seed upserts the given items into the samples table.
func Seed(ctx context.Context, db *bun.DB, items []domain.Item) (int64, error) {
	if len(items) == 0 {
		return 0, domain.ErrEmptyCatalog
	}
	rows := lo.Map(items, func(item domain.Item, _ int) sampleRow {
		return sampleRow{
			ID:       item.ID,
			Composer: item.Composer,
			Title:    item.Title,
			URI:      item.URI,
			Portrait: item.Portrait,
		}
	})
	res, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("composer = EXCLUDED.composer").
		Set("title = EXCLUDED.title").
		Set("uri = EXCLUDED.uri").
		Set("portrait = EXCLUDED.portrait").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed samples: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

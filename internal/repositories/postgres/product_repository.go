package postgres

import (
	"context"
	"errors"
	"sort"
)

// ProductRepository is the pgx implementation of repositories.ProductRepository.
type ProductRepository struct {
	db *DB
}

// NewProductRepository constructs a product repository bound to the shared DB.
func NewProductRepository(db *DB) (*ProductRepository, error) {
	if db == nil {
		return nil, errors.New("product repository: db is required")
	}
	return &ProductRepository{db: db}, nil
}

// Restock increments each product's stock by its delta. The update is relative
// (stock = stock + delta) so concurrent reconciliations of unrelated orders
// compose; a null stock means untracked and is treated as zero. Products are
// updated in ascending id order to keep row lock acquisition deterministic.
func (r *ProductRepository) Restock(ctx context.Context, deltas map[int64]int64) error {
	if len(deltas) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	q := r.db.querier(ctx)
	for _, id := range ids {
		if deltas[id] <= 0 {
			continue
		}
		if _, err := q.Exec(ctx,
			`UPDATE products SET stock = COALESCE(stock, 0) + $1 WHERE id = $2`,
			deltas[id], id); err != nil {
			return wrapError("product restock", err)
		}
	}
	return nil
}

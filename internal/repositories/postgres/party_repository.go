package postgres

import (
	"context"
	"errors"

	domain "github.com/borobepari/marketplace-api/internal/domain"
)

// PartyRepository resolves buyers, default addresses, and suppliers in batches
// for listing summaries.
type PartyRepository struct {
	db *DB
}

// NewPartyRepository constructs a party repository bound to the shared DB.
func NewPartyRepository(db *DB) (*PartyRepository, error) {
	if db == nil {
		return nil, errors.New("party repository: db is required")
	}
	return &PartyRepository{db: db}, nil
}

// GetBuyers batch-fetches buyer contact rows keyed by user id.
func (r *PartyRepository) GetBuyers(ctx context.Context, userIDs []int64) (map[int64]domain.Buyer, error) {
	buyers := make(map[int64]domain.Buyer, len(userIDs))
	if len(userIDs) == 0 {
		return buyers, nil
	}
	rows, err := r.db.querier(ctx).Query(ctx,
		`SELECT id, name, email, phone FROM users WHERE id = ANY($1)`, userIDs)
	if err != nil {
		return nil, wrapError("buyers", err)
	}
	defer rows.Close()

	for rows.Next() {
		var buyer domain.Buyer
		if err := rows.Scan(&buyer.ID, &buyer.Name, &buyer.Email, &buyer.Phone); err != nil {
			return nil, wrapError("buyers", err)
		}
		buyers[buyer.ID] = buyer
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("buyers", err)
	}
	return buyers, nil
}

// DefaultAddresses batch-fetches each buyer's default address; buyers without a
// flagged default fall back to their first address.
func (r *PartyRepository) DefaultAddresses(ctx context.Context, userIDs []int64) (map[int64]domain.Address, error) {
	addresses := make(map[int64]domain.Address, len(userIDs))
	if len(userIDs) == 0 {
		return addresses, nil
	}
	rows, err := r.db.querier(ctx).Query(ctx, `
		SELECT DISTINCT ON (user_id) id, user_id, line1, city, is_default
		FROM addresses
		WHERE user_id = ANY($1)
		ORDER BY user_id, is_default DESC, id ASC`, userIDs)
	if err != nil {
		return nil, wrapError("default addresses", err)
	}
	defer rows.Close()

	for rows.Next() {
		var addr domain.Address
		if err := rows.Scan(&addr.ID, &addr.UserID, &addr.Line1, &addr.City, &addr.IsDefault); err != nil {
			return nil, wrapError("default addresses", err)
		}
		addresses[addr.UserID] = addr
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("default addresses", err)
	}
	return addresses, nil
}

// GetSuppliers batch-fetches supplier rows keyed by supplier id.
func (r *PartyRepository) GetSuppliers(ctx context.Context, supplierIDs []int64) (map[int64]domain.Supplier, error) {
	suppliers := make(map[int64]domain.Supplier, len(supplierIDs))
	if len(supplierIDs) == 0 {
		return suppliers, nil
	}
	rows, err := r.db.querier(ctx).Query(ctx,
		`SELECT id, name FROM suppliers WHERE id = ANY($1)`, supplierIDs)
	if err != nil {
		return nil, wrapError("suppliers", err)
	}
	defer rows.Close()

	for rows.Next() {
		var supplier domain.Supplier
		if err := rows.Scan(&supplier.ID, &supplier.Name); err != nil {
			return nil, wrapError("suppliers", err)
		}
		suppliers[supplier.ID] = supplier
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("suppliers", err)
	}
	return suppliers, nil
}

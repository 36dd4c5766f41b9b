package postgres

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/borobepari/marketplace-api/internal/domain"
	"github.com/borobepari/marketplace-api/internal/repositories"
)

// orderPredicate accumulates WHERE clauses and their positional arguments. Both
// the page/total query and the bucket-count query are built from the same
// predicate so the two cannot drift apart.
type orderPredicate struct {
	clauses []string
	args    []any
}

// add appends a clause, rewriting each ? placeholder to the next positional
// argument. Repeated references bind the same argument via bind().
func (p *orderPredicate) add(clause string, args ...any) {
	for _, arg := range args {
		p.args = append(p.args, arg)
		clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(p.args)), 1)
	}
	p.clauses = append(p.clauses, clause)
}

// bind registers an argument and returns its positional placeholder for clauses
// that reference the same value more than once.
func (p *orderPredicate) bind(arg any) string {
	p.args = append(p.args, arg)
	return fmt.Sprintf("$%d", len(p.args))
}

func (p *orderPredicate) where() string {
	if len(p.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(p.clauses, " AND ")
}

// buildOrderPredicate renders the shared filter. includeStatus controls the one
// predicate the count query omits.
func (r *OrderRepository) buildOrderPredicate(query repositories.OrderListQuery, includeStatus bool) orderPredicate {
	var pred orderPredicate

	if term := strings.TrimSpace(query.Search); term != "" {
		like := pred.bind("%" + strings.ToLower(term) + "%")
		prefix := pred.bind(r.numberPrefix)
		parts := []string{
			"lower(u.name) LIKE " + like,
			"lower(u.email) LIKE " + like,
			"lower(u.phone) LIKE " + like,
			"o.id::text LIKE " + like,
			"lower(" + prefix + " || '-' || date_part('year', o.created_at)::int::text || '-' || lpad(o.id::text, 4, '0')) LIKE " + like,
		}
		if spellings := statusSpellingsMatching(term); len(spellings) > 0 {
			parts = append(parts, "lower(o.status) = ANY("+pred.bind(spellings)+")")
		}
		pred.clauses = append(pred.clauses, "("+strings.Join(parts, " OR ")+")")
	}

	if query.From != nil {
		pred.add("o.created_at >= ?", *query.From)
	}
	if query.To != nil {
		// Exclusive end of the date range.
		pred.add("o.created_at < ?", *query.To)
	}
	if payment := strings.TrimSpace(query.PaymentStatus); payment != "" {
		pred.add("o.payment_status = ?", payment)
	}

	if includeStatus && query.Status != nil {
		status := *query.Status
		if status == domain.OrderStatusPending {
			// Unrecognized stored values normalize to pending, so the pending
			// bucket is "everything that does not normalize elsewhere".
			pred.add("NOT (lower(o.status) = ANY(?))", spellingsNormalizingElsewhere(domain.OrderStatusPending))
		} else {
			pred.add("lower(o.status) = ANY(?)", domain.StatusSpellings(status))
		}
	}

	return pred
}

// statusSpellingsMatching returns stored spellings whose normalized status name
// contains the search term.
func statusSpellingsMatching(term string) []string {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	var matched []string
	for _, spelling := range domain.KnownStatusSpellings() {
		if strings.Contains(string(domain.NormalizeOrderStatus(spelling)), term) {
			matched = append(matched, spelling)
		}
	}
	return matched
}

// spellingsNormalizingElsewhere returns every known spelling whose normalized
// form differs from the given status.
func spellingsNormalizingElsewhere(status domain.OrderStatus) []string {
	var spellings []string
	for _, spelling := range domain.KnownStatusSpellings() {
		if domain.NormalizeOrderStatus(spelling) != status {
			spellings = append(spellings, spelling)
		}
	}
	return spellings
}

func orderSortClause(sort repositories.OrderSort) string {
	switch sort {
	case repositories.OrderSortOldest:
		return " ORDER BY o.created_at ASC, o.id ASC"
	case repositories.OrderSortAmountDesc:
		return " ORDER BY o.total_amount DESC, o.id DESC"
	case repositories.OrderSortAmountAsc:
		return " ORDER BY o.total_amount ASC, o.id ASC"
	default:
		return " ORDER BY o.created_at DESC, o.id DESC"
	}
}

const orderListFrom = ` FROM orders o LEFT JOIN users u ON u.id = o.user_id`

// List returns one page of orders plus the total matching the full predicate.
func (r *OrderRepository) List(ctx context.Context, query repositories.OrderListQuery) ([]domain.Order, int64, error) {
	pred := r.buildOrderPredicate(query, true)

	var total int64
	row := r.db.querier(ctx).QueryRow(ctx,
		`SELECT COUNT(*)`+orderListFrom+pred.where(), pred.args...)
	if err := row.Scan(&total); err != nil {
		return nil, 0, wrapError("order list total", err)
	}

	sql := `SELECT ` + orderColumns + orderListFrom + pred.where() + orderSortClause(query.Sort)
	args := pred.args
	if query.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, query.Limit, query.Offset)
	}

	rows, err := r.db.querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, wrapError("order list", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows, "order list")
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// CountByStatus evaluates the shared predicate with the status filter omitted
// and returns per-raw-status counts. Callers normalize the keys into canonical
// buckets.
func (r *OrderRepository) CountByStatus(ctx context.Context, query repositories.OrderListQuery) (map[string]int64, error) {
	pred := r.buildOrderPredicate(query, false)

	rows, err := r.db.querier(ctx).Query(ctx,
		`SELECT o.status, COUNT(*)`+orderListFrom+pred.where()+` GROUP BY o.status`, pred.args...)
	if err != nil {
		return nil, wrapError("order status counts", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, wrapError("order status counts", err)
		}
		counts[status] += count
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("order status counts", err)
	}
	return counts, nil
}

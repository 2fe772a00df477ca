package persistence

import (
	"strings"

	"github.com/tradeflow/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// defaultSortColumn keeps list queries newest first
const defaultSortColumn = "created_at"

// sortColumns whitelists the columns a list query may order by. Anything
// else falls back to created_at, so user input never reaches ORDER BY.
type sortColumns map[string]struct{}

// sortable returns the id and timestamp columns plus extra
func sortable(extra ...string) sortColumns {
	c := sortColumns{"id": {}, "created_at": {}, "updated_at": {}}
	for _, col := range extra {
		c[col] = struct{}{}
	}
	return c
}

var (
	tradeSort      = sortable("status", "product", "estimated_amount", "exporter_country", "importer_country")
	complianceSort = sortable("trade_id", "status", "risk_score", "completed_at")
	offerSort      = sortable("trade_id", "status", "interest_rate", "total_cost", "term_days")
	paymentSort    = sortable("trade_id", "status", "amount", "executed_at")
	bundleSort     = sortable("trade_id")
	auditSort      = sortColumns{"id": {}, "created_at": {}, "trade_id": {}, "event_type": {}}
)

// column returns field when whitelisted, else created_at
func (c sortColumns) column(field string) string {
	if _, ok := c[strings.TrimSpace(field)]; ok {
		return strings.TrimSpace(field)
	}
	return defaultSortColumn
}

// sortDirection is ASC only when asked for, DESC otherwise
func sortDirection(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// paginate applies the whitelisted ordering and page window of filter.
// Rows created in the same instant fall back to id order.
func paginate(query *gorm.DB, filter shared.Filter, cols sortColumns) *gorm.DB {
	col, dir := cols.column(filter.OrderBy), sortDirection(filter.OrderDir)
	query = query.Order(col + " " + dir)
	if col != "id" {
		query = query.Order("id " + dir)
	}
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

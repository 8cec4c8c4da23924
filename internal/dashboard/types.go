package dashboard

import "github.com/shopspring/decimal"

const (
	DefaultTopN = 5
	MaxTopN     = 20
)

// MonthStats aggregates one calendar month (UTC).
type MonthStats struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int64           `json:"orders"`
}

// TopProduct is one entry of the best sellers ranking.
type TopProduct struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitsSold int64           `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// Summary holds the store KPIs shown on the dashboard.
type Summary struct {
	Categories      int64            `json:"categories"`
	Products        int64            `json:"products"`
	Orders          int64            `json:"orders"`
	TotalRevenue    decimal.Decimal  `json:"total_revenue"`
	UnitsSold       int64            `json:"units_sold"`
	CurrentMonth    MonthStats       `json:"current_month"`
	PreviousMonth   MonthStats       `json:"previous_month"`
	RevenueDeltaPct *decimal.Decimal `json:"revenue_delta_pct"`
	OrdersDeltaPct  *decimal.Decimal `json:"orders_delta_pct"`
	TopProducts     []TopProduct     `json:"top_products"`
}

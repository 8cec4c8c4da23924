package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storedash-backend/pkg/errors"
	"github.com/angelmondragon/storedash-backend/pkg/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const monthLayout = "2006-01"

// Service computes store KPIs.
type Service interface {
	Summary(ctx context.Context, storeID uuid.UUID, topN int) (*Summary, error)
}

type categoryCounter interface {
	Count(ctx context.Context, storeID uuid.UUID) (int64, error)
}

type productLister interface {
	List(ctx context.Context, storeID uuid.UUID) ([]models.Product, error)
}

type orderLister interface {
	List(ctx context.Context, storeID uuid.UUID) ([]models.Order, error)
}

type service struct {
	categories categoryCounter
	products   productLister
	orders     orderLister
	now        func() time.Time
}

// NewService builds a dashboard service over the tenant repositories.
func NewService(categories categoryCounter, products productLister, orders orderLister) (Service, error) {
	if categories == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &service{
		categories: categories,
		products:   products,
		orders:     orders,
		now:        time.Now,
	}, nil
}

func (s *service) Summary(ctx context.Context, storeID uuid.UUID, topN int) (*Summary, error) {
	if topN < 1 || topN > MaxTopN {
		return nil, validation.Field("top", fmt.Sprintf("must be between 1 and %d", MaxTopN))
	}

	categoryCount, err := s.categories.Count(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count categories")
	}
	productRows, err := s.products.List(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	orderRows, err := s.orders.List(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	return summarize(categoryCount, productRows, orderRows, s.now().UTC(), topN), nil
}

func summarize(categoryCount int64, productRows []models.Product, orderRows []models.Order, now time.Time, topN int) *Summary {
	currentStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	previousStart := currentStart.AddDate(0, -1, 0)
	nextStart := currentStart.AddDate(0, 1, 0)

	summary := &Summary{
		Categories:    categoryCount,
		Products:      int64(len(productRows)),
		Orders:        int64(len(orderRows)),
		TotalRevenue:  decimal.Zero,
		CurrentMonth:  MonthStats{Month: currentStart.Format(monthLayout), Revenue: decimal.Zero},
		PreviousMonth: MonthStats{Month: previousStart.Format(monthLayout), Revenue: decimal.Zero},
	}

	ranking := make(map[uuid.UUID]*TopProduct, len(productRows))
	for _, p := range productRows {
		ranking[p.ID] = &TopProduct{ProductID: p.ID.String(), Name: p.Name, Revenue: decimal.Zero}
	}

	for _, o := range orderRows {
		total := o.Total()
		summary.TotalRevenue = summary.TotalRevenue.Add(total)
		summary.UnitsSold += int64(o.Quantity)

		created := o.CreatedAt.UTC()
		switch {
		case !created.Before(currentStart) && created.Before(nextStart):
			summary.CurrentMonth.Revenue = summary.CurrentMonth.Revenue.Add(total)
			summary.CurrentMonth.Orders++
		case !created.Before(previousStart) && created.Before(currentStart):
			summary.PreviousMonth.Revenue = summary.PreviousMonth.Revenue.Add(total)
			summary.PreviousMonth.Orders++
		}

		entry, ok := ranking[o.ProductID]
		if !ok {
			name := ""
			if o.Product != nil {
				name = o.Product.Name
			}
			entry = &TopProduct{ProductID: o.ProductID.String(), Name: name, Revenue: decimal.Zero}
			ranking[o.ProductID] = entry
		}
		entry.UnitsSold += int64(o.Quantity)
		entry.Revenue = entry.Revenue.Add(total)
	}

	summary.RevenueDeltaPct = deltaPct(summary.CurrentMonth.Revenue, summary.PreviousMonth.Revenue)
	summary.OrdersDeltaPct = deltaPct(
		decimal.NewFromInt(summary.CurrentMonth.Orders),
		decimal.NewFromInt(summary.PreviousMonth.Orders),
	)
	summary.TopProducts = topProducts(ranking, topN)
	return summary
}

// deltaPct is nil when both months are zero and 100 when only the previous
// month is zero.
func deltaPct(current, previous decimal.Decimal) *decimal.Decimal {
	if previous.IsZero() {
		if current.IsZero() {
			return nil
		}
		hundred := decimal.NewFromInt(100)
		return &hundred
	}
	pct := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2)
	return &pct
}

func topProducts(ranking map[uuid.UUID]*TopProduct, topN int) []TopProduct {
	out := make([]TopProduct, 0, len(ranking))
	for _, entry := range ranking {
		if entry.UnitsSold == 0 {
			continue
		}
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnitsSold != out[j].UnitsSold {
			return out[i].UnitsSold > out[j].UnitsSold
		}
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/bookstore-api/internal/apperr"
	"github.com/iliyamo/bookstore-api/internal/repository"
)

const (
	DefaultTopBooks  = 5
	MaxTopBooks      = 50
	DefaultSalesDays = 14
	MaxSalesDays     = 90
)

// Overview is the headline dashboard figure set.
type Overview struct {
	TotalUsers        int64           `json:"totalUsers"`
	TotalBooks        int64           `json:"totalBooks"`
	TotalOrders       int64           `json:"totalOrders"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

// DailySales is one day of the sales series.
type DailySales struct {
	Date       string          `json:"date"`
	OrderCount int64           `json:"orderCount"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// StatsService computes the admin statistics. Cancelled and refunded
// orders are excluded from every revenue figure.
type StatsService struct {
	stats *repository.StatsRepo
	now   func() time.Time
}

func NewStatsService(stats *repository.StatsRepo) *StatsService {
	return &StatsService{stats: stats, now: func() time.Time { return time.Now().UTC() }}
}

// Overview runs the independent aggregates concurrently.
func (s *StatsService) Overview(ctx context.Context) (Overview, error) {
	var (
		out     Overview
		counted int64
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { out.TotalUsers, err = s.stats.CountUsers(ctx); return })
	g.Go(func() (err error) { out.TotalBooks, err = s.stats.CountBooks(ctx); return })
	g.Go(func() (err error) { out.TotalOrders, err = s.stats.CountOrders(ctx); return })
	g.Go(func() (err error) { out.TotalRevenue, counted, err = s.stats.Revenue(ctx); return })
	if err := g.Wait(); err != nil {
		return Overview{}, apperr.Database(err)
	}
	out.TotalRevenue = out.TotalRevenue.Round(2)
	out.AverageOrderValue = decimal.Zero
	if counted > 0 {
		out.AverageOrderValue = out.TotalRevenue.Div(decimal.NewFromInt(counted)).Round(2)
	}
	return out, nil
}

// TopBooks returns the best sellers by quantity.
func (s *StatsService) TopBooks(ctx context.Context, limit int) ([]repository.TopBook, error) {
	if limit <= 0 {
		limit = DefaultTopBooks
	}
	if limit > MaxTopBooks {
		limit = MaxTopBooks
	}
	rows, err := s.stats.TopBooks(ctx, limit)
	if err != nil {
		return nil, apperr.Database(err)
	}
	if rows == nil {
		rows = []repository.TopBook{}
	}
	for i := range rows {
		rows[i].Revenue = rows[i].Revenue.Round(2)
	}
	return rows, nil
}

// DailySales returns one entry per UTC day for the last days days,
// oldest first, including days without sales.
func (s *StatsService) DailySales(ctx context.Context, days int) ([]DailySales, error) {
	if days <= 0 {
		days = DefaultSalesDays
	}
	if days > MaxSalesDays {
		days = MaxSalesDays
	}
	today := s.now().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))

	rows, err := s.stats.SalesSince(ctx, since)
	if err != nil {
		return nil, apperr.Database(err)
	}

	series := make([]DailySales, days)
	index := make(map[string]int, days)
	for i := range series {
		d := since.AddDate(0, 0, i).Format(time.DateOnly)
		series[i] = DailySales{Date: d, Revenue: decimal.Zero}
		index[d] = i
	}
	for _, r := range rows {
		i, ok := index[r.CreatedAt.UTC().Format(time.DateOnly)]
		if !ok {
			continue
		}
		series[i].OrderCount++
		series[i].Revenue = series[i].Revenue.Add(r.TotalAmount)
	}
	for i := range series {
		series[i].Revenue = series[i].Revenue.Round(2)
	}
	return series, nil
}

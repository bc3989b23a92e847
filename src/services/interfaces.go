package services

import (
	"context"
	"errors"

	"github.com/username/corretaje/src/models"
	"github.com/username/corretaje/src/reports"
)

// ErrInvalidFilter marks malformed or missing report parameters. It is
// surfaced to the caller immediately and never retried.
var ErrInvalidFilter = errors.New("invalid report filter")

// ReportFilter narrows a report to a year and optionally one month.
type ReportFilter struct {
	Year  int
	Month string // month label, empty for the whole year
}

// ReportService is the application-facing surface of the reporting
// engine. Absence of data (a nil SelfStats, an empty comparison) is an
// expected business outcome, not an error; errors mean invalid input or
// a failed store read.
type ReportService interface {
	Ranking(ctx context.Context, filter ReportFilter, limit int, order reports.Order) ([]models.RankingEntry, error)
	SelfPosition(ctx context.Context, filter ReportFilter) (*models.SelfStats, error)
	Comparison(ctx context.Context, periodMonths int, traders []string) (models.ComparisonReport, error)
	SectorMatrix(ctx context.Context, year int) ([]models.SectorCell, error)
	MonthlyPivot(ctx context.Context, year int, shape reports.PivotShape) (*models.PivotReport, error)
	RuedaPivot(ctx context.Context, year int, month string) (*models.PivotReport, error)

	ImportTransactions(ctx context.Context, records []models.TransactionRecord) (int, error)
	ListTraders(ctx context.Context) ([]models.Trader, error)
	CreateTrader(ctx context.Context, trader *models.Trader) error
	CreateAlias(ctx context.Context, alias *models.TraderAlias) error
}

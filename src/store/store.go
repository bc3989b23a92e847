package store

import (
	"context"

	"github.com/username/corretaje/src/models"
)

// Filter narrows a transaction query. The zero value matches everything.
type Filter struct {
	Year           int
	MonthLabel     string
	DateFrom       string   // YYYY-MM-DD, inclusive
	DateTo         string   // YYYY-MM-DD, inclusive
	IncludeTraders []string // raw broker names
	ExcludeTraders []string
	IncludeClients []string
}

// TransactionStore is the read capability the reporting engine depends
// on. Implementations may pre-aggregate for efficiency; the engine folds
// raw rows and produces identical results either way.
type TransactionStore interface {
	QueryTransactions(ctx context.Context, filter Filter) ([]models.TransactionRecord, error)
	QueryTraders(ctx context.Context) ([]models.Trader, error)
	QueryAliases(ctx context.Context) ([]models.TraderAlias, error)
}

// TransactionWriter extends the store with the ingestion and registry
// operations used by the admin endpoints.
type TransactionWriter interface {
	InsertTransactions(ctx context.Context, records []models.TransactionRecord) (int, error)
	InsertTrader(ctx context.Context, trader *models.Trader) error
	InsertAlias(ctx context.Context, alias *models.TraderAlias) error
}

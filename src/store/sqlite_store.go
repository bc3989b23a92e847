package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/username/corretaje/src/logger"
	"github.com/username/corretaje/src/models"
)

// SQLiteStore implements TransactionStore and TransactionWriter on top
// of the shared sqlite handle.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const transactionColumns = `id, trader_name, client_name, client_tax_id, city, date, rueda, month_label, year, product_name, amount, commission, exchange_fee, tax`

func (s *SQLiteStore) QueryTransactions(ctx context.Context, filter Filter) ([]models.TransactionRecord, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions`
	var conditions []string
	var args []interface{}

	if filter.Year != 0 {
		conditions = append(conditions, "year = ?")
		args = append(args, filter.Year)
	}
	if filter.MonthLabel != "" {
		conditions = append(conditions, "LOWER(month_label) = LOWER(?)")
		args = append(args, filter.MonthLabel)
	}
	if filter.DateFrom != "" {
		conditions = append(conditions, "date >= ?")
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		conditions = append(conditions, "date <= ?")
		args = append(args, filter.DateTo)
	}
	if len(filter.IncludeTraders) > 0 {
		conditions = append(conditions, "LOWER(trader_name) IN ("+placeholders(len(filter.IncludeTraders))+")")
		for _, name := range filter.IncludeTraders {
			args = append(args, strings.ToLower(name))
		}
	}
	if len(filter.ExcludeTraders) > 0 {
		conditions = append(conditions, "LOWER(trader_name) NOT IN ("+placeholders(len(filter.ExcludeTraders))+")")
		for _, name := range filter.ExcludeTraders {
			args = append(args, strings.ToLower(name))
		}
	}
	if len(filter.IncludeClients) > 0 {
		conditions = append(conditions, "LOWER(client_name) IN ("+placeholders(len(filter.IncludeClients))+")")
		for _, name := range filter.IncludeClients {
			args = append(args, strings.ToLower(name))
		}
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	var records []models.TransactionRecord
	for rows.Next() {
		var tx models.TransactionRecord
		if err := rows.Scan(&tx.ID, &tx.TraderName, &tx.ClientName, &tx.ClientTaxID, &tx.City, &tx.Date, &tx.Rueda, &tx.MonthLabel, &tx.Year, &tx.ProductName, &tx.Amount, &tx.Commission, &tx.ExchangeFee, &tx.Tax); err != nil {
			return nil, fmt.Errorf("error scanning transaction row: %w", err)
		}
		records = append(records, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transaction rows: %w", err)
	}
	logger.L.Debug("Transaction query complete", "count", len(records))
	return records, nil
}

func (s *SQLiteStore) QueryTraders(ctx context.Context) ([]models.Trader, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, tax_id, commission_pct, active FROM traders ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying traders: %w", err)
	}
	defer rows.Close()

	var traders []models.Trader
	for rows.Next() {
		var t models.Trader
		if err := rows.Scan(&t.ID, &t.Name, &t.TaxID, &t.CommissionPct, &t.Active); err != nil {
			return nil, fmt.Errorf("error scanning trader row: %w", err)
		}
		traders = append(traders, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over trader rows: %w", err)
	}
	return traders, nil
}

func (s *SQLiteStore) QueryAliases(ctx context.Context) ([]models.TraderAlias, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, trader_id, alias FROM trader_aliases ORDER BY alias ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying aliases: %w", err)
	}
	defer rows.Close()

	var aliases []models.TraderAlias
	for rows.Next() {
		var a models.TraderAlias
		if err := rows.Scan(&a.ID, &a.TraderID, &a.Alias); err != nil {
			return nil, fmt.Errorf("error scanning alias row: %w", err)
		}
		aliases = append(aliases, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over alias rows: %w", err)
	}
	return aliases, nil
}

// InsertTransactions stores a batch of records in a single database
// transaction. Either the full batch commits or nothing does.
func (s *SQLiteStore) InsertTransactions(ctx context.Context, records []models.TransactionRecord) (int, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, `INSERT INTO transactions (trader_name, client_name, client_tax_id, city, date, rueda, month_label, year, product_name, amount, commission, exchange_fee, tax) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, tx := range records {
		if _, err := stmt.ExecContext(ctx, tx.TraderName, tx.ClientName, tx.ClientTaxID, tx.City, tx.Date, tx.Rueda, tx.MonthLabel, tx.Year, tx.ProductName, tx.Amount, tx.Commission, tx.ExchangeFee, tx.Tax); err != nil {
			return 0, fmt.Errorf("error inserting transaction (trader: %s, date: %s): %w", tx.TraderName, tx.Date, err)
		}
		inserted++
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing transactions: %w", err)
	}
	logger.L.Info("Inserted transaction batch", "count", inserted)
	return inserted, nil
}

func (s *SQLiteStore) InsertTrader(ctx context.Context, trader *models.Trader) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO traders (name, tax_id, commission_pct, active) VALUES (?, ?, ?, ?)`,
		trader.Name, trader.TaxID, trader.CommissionPct, trader.Active)
	if err != nil {
		return fmt.Errorf("error inserting trader %q: %w", trader.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	trader.ID = id
	return nil
}

func (s *SQLiteStore) InsertAlias(ctx context.Context, alias *models.TraderAlias) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO trader_aliases (trader_id, alias) VALUES (?, ?)`,
		alias.TraderID, alias.Alias)
	if err != nil {
		return fmt.Errorf("error inserting alias %q: %w", alias.Alias, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	alias.ID = id
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

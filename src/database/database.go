package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/corretaje/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Ensuring database schema", "databasePath", databasePath)
	} else {
		stdlog.Println("Ensuring database schema for:", databasePath)
	}

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS traders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		tax_id TEXT,
		commission_pct REAL DEFAULT 0,
		active BOOLEAN DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS trader_aliases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trader_id INTEGER NOT NULL,
		alias TEXT NOT NULL UNIQUE,
		FOREIGN KEY(trader_id) REFERENCES traders(id)
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trader_name TEXT NOT NULL,
		client_name TEXT NOT NULL,
		client_tax_id TEXT,
		city TEXT,
		date TEXT NOT NULL,
		rueda INTEGER,
		month_label TEXT,
		year INTEGER NOT NULL,
		product_name TEXT,
		amount REAL NOT NULL,
		commission REAL DEFAULT 0,
		exchange_fee REAL DEFAULT 0,
		tax REAL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_year ON transactions(year);
	CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}

	migrateTransactionsTable()

	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// migrateTransactionsTable adds columns introduced after the first
// schema version to databases created before them.
func migrateTransactionsTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='transactions'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'transactions' table", "error", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(transactions)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'transactions'", "error", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'transactions'", "error", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'transactions'", "error", err)
		}
		return
	}

	addColumn := func(name, definition string) {
		if columnExists[name] {
			return
		}
		if _, err := DB.Exec("ALTER TABLE transactions ADD COLUMN " + name + " " + definition); err != nil {
			logger.L.Error("Error adding column to 'transactions' table", "column", name, "error", err)
		} else {
			logger.L.Info("Added column to 'transactions' table", "column", name)
		}
	}

	addColumn("product_name", "TEXT")
	addColumn("exchange_fee", "REAL DEFAULT 0")
	addColumn("tax", "REAL DEFAULT 0")
}

// Package persistence provides the SQLite trade ledger: concluded
// contracts, partner breach records, and per-period results.
package persistence

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/haggle/internal/negotiation"
)

// DB wraps a SQLite connection for the trade ledger.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path. Use ":memory:"
// for an ephemeral ledger.
func Open(path string) (*DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		step INTEGER NOT NULL,
		partner TEXT NOT NULL,
		direction INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		price REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS breaches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		partner TEXT NOT NULL,
		step INTEGER NOT NULL,
		level REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_breaches_partner_step ON breaches(partner, step);

	CREATE TABLE IF NOT EXISTS periods (
		step INTEGER PRIMARY KEY,
		required_buy INTEGER NOT NULL,
		required_sell INTEGER NOT NULL,
		outstanding_buy INTEGER NOT NULL,
		outstanding_sell INTEGER NOT NULL,
		contracts INTEGER NOT NULL,
		spent REAL NOT NULL,
		earned REAL NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveContract records a concluded agreement.
func (db *DB) SaveContract(c negotiation.Contract) error {
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO contracts (id, step, partner, direction, quantity, price)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Step, string(c.Partner), c.Direction, c.Quantity, c.Price,
	)
	if err != nil {
		return fmt.Errorf("save contract: %w", err)
	}
	return nil
}

// SaveBreach records a partner breach at the given period.
func (db *DB) SaveBreach(partner negotiation.PartnerID, step int, level float64) error {
	_, err := db.conn.Exec(
		`INSERT INTO breaches (partner, step, level) VALUES (?, ?, ?)`,
		string(partner), step, level,
	)
	if err != nil {
		return fmt.Errorf("save breach: %w", err)
	}
	return nil
}

// BreachLevels returns the breach levels recorded for a partner at or after
// sinceStep. Implements the reputation ledger.
func (db *DB) BreachLevels(partner negotiation.PartnerID, sinceStep int) ([]float64, error) {
	var levels []float64
	err := db.conn.Select(&levels,
		`SELECT level FROM breaches WHERE partner = ? AND step >= ? ORDER BY step`,
		string(partner), sinceStep,
	)
	if err != nil {
		return nil, fmt.Errorf("breach levels: %w", err)
	}
	return levels, nil
}

// PeriodRow is one period's result as stored in the ledger.
type PeriodRow struct {
	Step            int     `db:"step"`
	RequiredBuy     int     `db:"required_buy"`
	RequiredSell    int     `db:"required_sell"`
	OutstandingBuy  int     `db:"outstanding_buy"`
	OutstandingSell int     `db:"outstanding_sell"`
	Contracts       int     `db:"contracts"`
	Spent           float64 `db:"spent"`
	Earned          float64 `db:"earned"`
}

// SavePeriod records a closed period's results.
func (db *DB) SavePeriod(row PeriodRow) error {
	_, err := db.conn.NamedExec(
		`INSERT OR REPLACE INTO periods
		 (step, required_buy, required_sell, outstanding_buy, outstanding_sell, contracts, spent, earned)
		 VALUES (:step, :required_buy, :required_sell, :outstanding_buy, :outstanding_sell, :contracts, :spent, :earned)`,
		row,
	)
	if err != nil {
		return fmt.Errorf("save period: %w", err)
	}
	return nil
}

// Totals aggregates the ledger for summaries and the status endpoint.
type Totals struct {
	Contracts int     `db:"contracts"`
	Bought    int     `db:"bought"`
	Sold      int     `db:"sold"`
	Spent     float64 `db:"spent"`
	Earned    float64 `db:"earned"`
}

// LedgerTotals returns aggregate counts and cash flow across all recorded
// contracts.
func (db *DB) LedgerTotals() (Totals, error) {
	var t Totals
	err := db.conn.Get(&t, fmt.Sprintf(`
		SELECT COUNT(*) AS contracts,
		       COALESCE(SUM(CASE WHEN direction = %d THEN quantity END), 0) AS bought,
		       COALESCE(SUM(CASE WHEN direction = %d THEN quantity END), 0) AS sold,
		       COALESCE(SUM(CASE WHEN direction = %d THEN quantity * price END), 0) AS spent,
		       COALESCE(SUM(CASE WHEN direction = %d THEN quantity * price END), 0) AS earned
		FROM contracts`,
		negotiation.Buying, negotiation.Selling, negotiation.Buying, negotiation.Selling,
	))
	if err != nil {
		return Totals{}, fmt.Errorf("ledger totals: %w", err)
	}
	return t, nil
}

package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"herd-census/internal/domain"
)

// Dialect selects the SQL flavour of a store.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect accepts the dialect names and their driver aliases.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	}
	return "", fmt.Errorf("unsupported sql dialect %q", s)
}

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

// OpenDB opens a connection pool and checks it is reachable.
func OpenDB(ctx context.Context, dialect Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	if dialect == DialectPostgres {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxIdleTime(5 * time.Minute)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return db, nil
}

// SQLStore implements both the RecordStore and the InvoiceStore interfaces
// over the census source tables. Rows are returned with their column names as
// keys; NULL columns are left out.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore creates a store over an open database.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// ListAnimals returns every animal row. Filtering is left to the adapters.
func (s *SQLStore) ListAnimals(ctx context.Context, filter domain.AnimalFilter) ([]domain.RawRow, error) {
	rows, err := s.query(ctx, `SELECT * FROM animals ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("could not list animals: %w", err)
	}
	return rows, nil
}

// dayBounds turns a whole-day inclusive period into a half-open range, so a
// stored value with a time part on the last day still sorts below the bound.
func dayBounds(periodStart, periodEnd time.Time) (string, string) {
	return periodStart.Format(time.DateOnly), periodEnd.AddDate(0, 0, 1).Format(time.DateOnly)
}

// ListOutboundMovements returns the movements dated within the period.
func (s *SQLStore) ListOutboundMovements(ctx context.Context, periodStart, periodEnd time.Time) ([]domain.RawRow, error) {
	start, next := dayBounds(periodStart, periodEnd)
	rows, err := s.query(ctx,
		`SELECT * FROM outbound_movements WHERE movement_date >= ? AND movement_date < ? ORDER BY movement_date, id`,
		start, next)
	if err != nil {
		return nil, fmt.Errorf("could not list outbound movements: %w", err)
	}
	return rows, nil
}

// ListInvoices returns the invoices issued within the period with their item
// rows attached.
func (s *SQLStore) ListInvoices(ctx context.Context, periodStart, periodEnd time.Time) ([]domain.RawInvoice, error) {
	start, next := dayBounds(periodStart, periodEnd)

	headers, err := s.query(ctx,
		`SELECT * FROM invoices WHERE issued_at >= ? AND issued_at < ? ORDER BY issued_at, id`, start, next)
	if err != nil {
		return nil, fmt.Errorf("could not list invoices: %w", err)
	}
	items, err := s.query(ctx,
		`SELECT ii.* FROM invoice_items ii JOIN invoices i ON i.id = ii.invoice_id
		 WHERE i.issued_at >= ? AND i.issued_at < ? ORDER BY ii.invoice_id, ii.position, ii.id`, start, next)
	if err != nil {
		return nil, fmt.Errorf("could not list invoice items: %w", err)
	}

	byInvoice := make(map[string][]domain.RawRow)
	for _, item := range items {
		id := columnString(item["invoice_id"])
		byInvoice[id] = append(byInvoice[id], item)
	}

	invoices := make([]domain.RawInvoice, 0, len(headers))
	for _, h := range headers {
		inv := domain.RawInvoice{Header: h, ItemRows: byInvoice[columnString(h["id"])]}
		if raw, ok := h["items"]; ok {
			inv.InlineItems = []byte(columnString(raw))
			delete(h, "items")
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) ([]domain.RawRow, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []domain.RawRow
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(domain.RawRow, len(cols))
		for i, col := range cols {
			switch v := values[i].(type) {
			case nil:
			case []byte:
				row[col] = string(v)
			default:
				row[col] = v
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// rebind rewrites ? placeholders into $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func columnString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	}
	return fmt.Sprint(v)
}

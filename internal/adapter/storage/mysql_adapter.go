package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/bikeshop/internal/core/domain"
	"github.com/rl1809/bikeshop/internal/port"
)

const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
	mysqlCheckConstraint = 3819
	defaultMaxOpenConns  = 25
	defaultMaxIdleConns  = 10
)

//go:embed schema.sql
var schemaSQL string

// queryer is satisfied by both *sql.DB and *sql.Tx, so every repository can
// run either on the pool or inside a workflow transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MySQLAdapter is the port.Store backed by one MySQL connection pool.
type MySQLAdapter struct {
	db *sql.DB
	repositories
}

var (
	_ port.Store               = (*MySQLAdapter)(nil)
	_ port.FramesetRepository  = framesetRepo{}
	_ port.HandlebarRepository = handlebarRepo{}
	_ port.WheelPairRepository = wheelPairRepo{}
	_ port.StockRepository     = stockRepo{}
	_ port.OrderRepository     = orderRepo{}
	_ port.ProductRepository   = productRepo{}
	_ port.LineItemRepository  = lineItemRepo{}
	_ port.CustomerRepository  = customerRepo{}
)

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db, repositories: repositories{q: db}}
}

// OpenMySQL opens a pool for dsn. The DSN is forced to parse DATETIME columns
// and to report matched rather than changed rows.
func OpenMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// EnsureSchema creates any missing table. Statements in schema.sql are
// separated by semicolons and contain none themselves.
func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return storageErr("ensure schema", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) WithinTx(ctx context.Context, fn func(ctx context.Context, tx port.Repositories) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin tx", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, repositories{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit", err)
	}
	return nil
}

func (m *MySQLAdapter) Framesets() port.FramesetRepository   { return newFramesetRepo(m.db) }
func (m *MySQLAdapter) Handlebars() port.HandlebarRepository { return newHandlebarRepo(m.db) }
func (m *MySQLAdapter) WheelPairs() port.WheelPairRepository { return newWheelPairRepo(m.db) }

type repositories struct {
	q queryer
}

func (r repositories) Orders() port.OrderRepository       { return orderRepo{q: r.q} }
func (r repositories) Products() port.ProductRepository   { return productRepo{q: r.q} }
func (r repositories) LineItems() port.LineItemRepository { return lineItemRepo{q: r.q} }
func (r repositories) Stock() port.StockRepository        { return stockRepo{q: r.q} }
func (r repositories) Customers() port.CustomerRepository { return customerRepo{q: r.q} }

// storageErr maps driver errors onto domain error kinds.
func storageErr(op string, err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return fmt.Errorf("%w: %s: %s", domain.ErrAlreadyExists, op, myErr.Message)
		case mysqlRowIsReferenced:
			return fmt.Errorf("%w: %s: the row is still referenced by a bicycle or order", domain.ErrInvalidInput, op)
		case mysqlNoReferencedRow:
			return fmt.Errorf("%w: %s: %s", domain.ErrNotFound, op, myErr.Message)
		case mysqlCheckConstraint:
			return fmt.Errorf("%w: %s", domain.ErrInsufficientStock, op)
		}
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
}

func exists(ctx context.Context, q queryer, op, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageErr(op, err)
	}
	return true, nil
}

func rowsAffected(res sql.Result, op string) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr(op, err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

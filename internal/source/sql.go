package source

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/dataflow/internal/table"
)

// maxSQLRows — максимум строк, читаемых из результата запроса.
const maxSQLRows = 1_000_000

// PostgresDSN собирает строку подключения из полей формы.
func PostgresDSN(host string, port int, database, user, password string) string {
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme:   "postgresql",
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/" + database,
		RawQuery: "sslmode=prefer",
	}
	if user != "" {
		u.User = url.UserPassword(user, password)
	}
	return u.String()
}

// NewPool создаёт пул подключений к PostgreSQL и проверяет соединение.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 2
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// loadSQL выполняет запрос и превращает результат в таблицу.
func loadSQL(ctx context.Context, spec Spec) (*Result, error) {
	pool, err := NewPool(ctx, spec.DSN)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, spec.Query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var out [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = sqlValue(v)
		}
		out = append(out, row)
		if len(out) >= maxSQLRows {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	return &Result{Table: table.New(columns, out), Origin: "postgresql"}, nil
}

// sqlValue приводит значения pgx к типам ячейки.
func sqlValue(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(x).String()
	case time.Duration:
		return x.String()
	case map[string]any, []any:
		return fmt.Sprint(x)
	}
	return table.Normalize(v)
}

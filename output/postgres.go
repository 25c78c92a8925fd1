/*
Copyright © 2013 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package output

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// PostgresSink is a second Output implementation (§6: "the core does not
// prescribe the storage layout") for a larger, shared landscape run where
// several concurrent simulations write into one database, grounded on
// yuzhou-wang-inmap's pgx-backed result tables.
type PostgresSink struct {
	dsn string

	pool      *pgxpool.Pool
	tableCols map[string][]string
}

// NewPostgresSink returns a sink that will connect to dsn on Open.
func NewPostgresSink(dsn string) *PostgresSink {
	return &PostgresSink{dsn: dsn, tableCols: map[string][]string{}}
}

func (s *PostgresSink) Name() string { return "postgres" }

// Open establishes the connection pool.
func (s *PostgresSink) Open() error {
	pool, err := pgxpool.Connect(context.Background(), s.dsn)
	if err != nil {
		return fmt.Errorf("postgres: connecting: %w", err)
	}
	s.pool = pool
	return nil
}

// Write inserts rows into table with one plain INSERT per row, all queued in
// a single pgx batch, creating the table if it has not been seen before. Postgres
// reserves many identifiers (e.g. "year"), so column names are
// double-quoted.
func (s *PostgresSink) Write(table string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	ctx := context.Background()
	cols, ok := s.tableCols[table]
	if !ok {
		cols = sortedKeys(rows[0])
		if err := s.createTable(ctx, table, cols, rows[0]); err != nil {
			return err
		}
		s.tableCols[table] = cols
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}

	batch := &pgx.Batch{}
	placeholders := make([]string, len(cols))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", pgx.Identifier{table}.Sanitize(), strings.Join(quoted, ","), strings.Join(placeholders, ","))
	for _, r := range rows {
		args := make([]interface{}, len(cols))
		for i, c := range cols {
			args[i] = r[c]
		}
		batch.Queue(insertSQL, args...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range rows {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert into %s: %w", table, err)
		}
	}
	return nil
}

func (s *PostgresSink) createTable(ctx context.Context, table string, cols []string, sample Row) error {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = fmt.Sprintf("%s %s", pgx.Identifier{c}.Sanitize(), pgType(sample[c]))
	}
	_, err := s.pool.Exec(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", pgx.Identifier{table}.Sanitize(), strings.Join(defs, ",")))
	if err != nil {
		return fmt.Errorf("postgres: create table %s: %w", table, err)
	}
	return nil
}

func pgType(v interface{}) string {
	switch v.(type) {
	case int, int64:
		return "bigint"
	case float32, float64:
		return "double precision"
	case bool:
		return "boolean"
	default:
		return "text"
	}
}

// Close releases the connection pool.
func (s *PostgresSink) Close() error {
	if s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

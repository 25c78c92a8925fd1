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
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteSink is the default Output implementation named in §1 ("a
// relational store"): no server process, a single file, well suited to one
// simulation run's output. Table schemas are created lazily from the first
// batch of rows written to each table, since the core intentionally leaves
// table layout unspecified (§6).
type SQLiteSink struct {
	path string

	mu      sync.Mutex
	db      *sql.DB
	tableCols map[string][]string // table -> column names already created
}

// NewSQLiteSink returns a sink that will open/create the database file at
// path.
func NewSQLiteSink(path string) *SQLiteSink {
	return &SQLiteSink{path: path, tableCols: map[string][]string{}}
}

func (s *SQLiteSink) Name() string { return "sqlite:" + s.path }

// Open opens (creating if necessary) the SQLite database file.
func (s *SQLiteSink) Open() error {
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return fmt.Errorf("sqlite: opening %s: %w", s.path, err)
	}
	s.db = db
	return nil
}

// Write inserts rows into table, creating the table with INTEGER/REAL/TEXT columns
// inferred from the first row's keys if it has not been seen before.
func (s *SQLiteSink) Write(table string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cols, ok := s.tableCols[table]
	if !ok {
		cols = sortedKeys(rows[0])
		if err := s.createTable(table, cols, rows[0]); err != nil {
			return err
		}
		s.tableCols[table] = cols
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ","), placeholders))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite: prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		args := make([]interface{}, len(cols))
		for i, c := range cols {
			args[i] = r[c]
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite: insert into %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteSink) createTable(table string, cols []string, sample Row) error {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = fmt.Sprintf("%s %s", c, sqlType(sample[c]))
	}
	_, err := s.db.Exec(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ",")))
	if err != nil {
		return fmt.Errorf("sqlite: create table %s: %w", table, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteSink) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func sortedKeys(r Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sqlType(v interface{}) string {
	switch v.(type) {
	case int, int64:
		return "INTEGER"
	case float32, float64:
		return "REAL"
	default:
		return "TEXT"
	}
}

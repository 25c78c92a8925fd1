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

// Package output implements the tabular sink contract of §6: "Named
// row-oriented tables keyed by (year, ru, species, ...); the core invokes
// OutputManager.execute(name) at defined moments... The core does not
// prescribe the storage layout." Two concrete Sink implementations are
// provided (SQLite and Postgres, §6's "relational store") — the teacher's
// own output path (results written via a SQL driver, see
// yuzhou-wang-inmap's pgx-backed output tables) is the direct model for
// both.
package output

import "fmt"

// Row is one output record: column name to value. Values are expected to be
// one of int64, float64, string or bool — the types every Sink in this
// package knows how to bind.
type Row map[string]interface{}

// Sink is a single output destination. Execute batches every Row produced
// for one table at one invocation moment into a single Write call so a
// sink can wrap it in one transaction.
type Sink interface {
	// Name identifies the sink for error messages.
	Name() string
	// Open prepares the sink (e.g. connects, creates tables) before the
	// first Execute call.
	Open() error
	// Write persists rows under the named table.
	Write(table string, rows []Row) error
	// Close releases the sink's resources at the end of a run.
	Close() error
}

// Manager is the OutputManager of §4.10/§6: it fans a named table's rows
// out to every registered sink. The core never calls a sink directly —
// only through Manager.Execute — so swapping SQLite for Postgres (or both)
// is a pure configuration change.
type Manager struct {
	sinks []Sink
}

// NewManager returns an empty Manager.
func NewManager() *Manager { return &Manager{} }

// Register adds sink to the manager. Open must be called (via OpenAll)
// before Execute is used.
func (m *Manager) Register(sink Sink) { m.sinks = append(m.sinks, sink) }

// Sinks returns the registered sinks, letting a caller skip building rows
// for a table when no sink is registered at all.
func (m *Manager) Sinks() []Sink { return m.sinks }

// OpenAll opens every registered sink, in registration order, stopping at
// the first error.
func (m *Manager) OpenAll() error {
	for _, s := range m.sinks {
		if err := s.Open(); err != nil {
			return fmt.Errorf("output: %s: Open: %w", s.Name(), err)
		}
	}
	return nil
}

// Execute writes rows under table to every registered sink. A write
// failure is fatal (§7 "SQL write failures are treated as fatal") and
// aborts the fan-out immediately: sinks after the failing one receive none
// of the rows, while sinks before it have already written them.
func (m *Manager) Execute(table string, rows []Row) error {
	for _, s := range m.sinks {
		if err := s.Write(table, rows); err != nil {
			return fmt.Errorf("output: %s: Write(%s): %w", s.Name(), table, err)
		}
	}
	return nil
}

// CloseAll closes every registered sink, continuing past individual errors
// and returning the first one encountered.
func (m *Manager) CloseAll() error {
	var first error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = fmt.Errorf("output: %s: Close: %w", s.Name(), err)
		}
	}
	return first
}

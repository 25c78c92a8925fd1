package output

import "testing"

type memSink struct {
	name   string
	opened bool
	closed bool
	tables map[string][]Row
	failOn string
}

func newMemSink(name string) *memSink { return &memSink{name: name, tables: map[string][]Row{}} }

func (s *memSink) Name() string { return s.name }
func (s *memSink) Open() error  { s.opened = true; return nil }
func (s *memSink) Write(table string, rows []Row) error {
	if s.failOn == table {
		return errFail
	}
	s.tables[table] = append(s.tables[table], rows...)
	return nil
}
func (s *memSink) Close() error { s.closed = true; return nil }

type failErr string

func (e failErr) Error() string { return string(e) }

var errFail = failErr("write failed")

func TestManagerFansOutToAllSinks(t *testing.T) {
	m := NewManager()
	a, b := newMemSink("a"), newMemSink("b")
	m.Register(a)
	m.Register(b)

	if err := m.OpenAll(); err != nil {
		t.Fatal(err)
	}
	if !a.opened || !b.opened {
		t.Fatal("OpenAll did not open every sink")
	}

	rows := []Row{{"year": 1, "ruID": 0}}
	if err := m.Execute("tree", rows); err != nil {
		t.Fatal(err)
	}
	if len(a.tables["tree"]) != 1 || len(b.tables["tree"]) != 1 {
		t.Errorf("rows not fanned out to both sinks: a=%v b=%v", a.tables, b.tables)
	}

	if err := m.CloseAll(); err != nil {
		t.Fatal(err)
	}
	if !a.closed || !b.closed {
		t.Fatal("CloseAll did not close every sink")
	}
}

func TestManagerExecuteStopsOnFirstSinkError(t *testing.T) {
	m := NewManager()
	a := newMemSink("a")
	a.failOn = "tree"
	b := newMemSink("b")
	m.Register(a)
	m.Register(b)

	err := m.Execute("tree", []Row{{"year": 1}})
	if err == nil {
		t.Fatal("expected error from failing sink")
	}
	if len(b.tables["tree"]) != 0 {
		t.Error("sink registered after the failing one should not have received rows")
	}
}

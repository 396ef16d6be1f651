// Package dbtest provides a scripted db.Querier for repository tests.
package dbtest

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/example/hsp-booker/internal/db"
)

type Call struct {
	SQL  string
	Args []any
}

// Fake answers queries through hooks. Without a hook Exec succeeds and
// queries return no rows.
type Fake struct {
	OnExec     func(sql string, args []any) error
	OnQueryRow func(sql string, args []any) Row
	OnQuery    func(sql string, args []any) (*Rows, error)

	mu    sync.Mutex
	calls []Call
}

var _ db.Querier = (*Fake)(nil)

func (f *Fake) record(sql string, args []any) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{SQL: sql, Args: args})
	f.mu.Unlock()
}

func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *Fake) Exec(_ context.Context, sql string, args ...any) error {
	f.record(sql, args)
	if f.OnExec == nil {
		return nil
	}
	return f.OnExec(sql, args)
}

func (f *Fake) QueryRow(_ context.Context, sql string, args ...any) db.Row {
	f.record(sql, args)
	if f.OnQueryRow == nil {
		return Row{Err: pgx.ErrNoRows}
	}
	return f.OnQueryRow(sql, args)
}

func (f *Fake) Query(_ context.Context, sql string, args ...any) (db.Rows, error) {
	f.record(sql, args)
	if f.OnQuery == nil {
		return &Rows{}, nil
	}
	rows, err := f.OnQuery(sql, args)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Row scans Values into the destinations. Err is returned from Scan when set.
type Row struct {
	Values []any
	Err    error
}

func (r Row) Scan(dest ...any) error {
	if r.Err != nil {
		return r.Err
	}
	return assign(dest, r.Values)
}

type Rows struct {
	Data [][]any
	pos  int
}

func (r *Rows) Close()     {}
func (r *Rows) Err() error { return nil }
func (r *Rows) Next() bool { r.pos++; return r.pos <= len(r.Data) }
func (r *Rows) Scan(dest ...any) error {
	if r.pos == 0 || r.pos > len(r.Data) {
		return fmt.Errorf("scan called without a current row")
	}
	return assign(dest, r.Data[r.pos-1])
}

func assign(dest, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, d := range dest {
		dv := reflect.ValueOf(d)
		if dv.Kind() != reflect.Pointer || dv.IsNil() {
			return fmt.Errorf("scan: destination %d is not a pointer", i)
		}
		vv := reflect.ValueOf(values[i])
		if !vv.Type().AssignableTo(dv.Elem().Type()) {
			return fmt.Errorf("scan: cannot assign %s to %s", vv.Type(), dv.Elem().Type())
		}
		dv.Elem().Set(vv)
	}
	return nil
}

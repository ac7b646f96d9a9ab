package leadqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"leadflow/sheets"
)

// fakeStore is an in-memory sheets.Store over a header row plus data rows
// (sheet rows 2..n). Optional error injection simulates store failures.
type fakeStore struct {
	mu     sync.Mutex
	header []string
	rows   [][]string

	writes    int
	failNext  error
	failReads bool
}

func newFakeStore(header []string, rows [][]string) *fakeStore {
	return &fakeStore{header: header, rows: rows}
}

func (f *fakeStore) Tabs(ctx context.Context, sheetID string) ([]string, error) {
	return []string{"Leads"}, nil
}

func (f *fakeStore) Header(ctx context.Context, ref sheets.SheetRef) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errors.New("fake store: read failure")
	}
	return append([]string(nil), f.header...), nil
}

func (f *fakeStore) Rows(ctx context.Context, ref sheets.SheetRef) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errors.New("fake store: read failure")
	}
	out := make([][]string, len(f.rows))
	for i, r := range f.rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (f *fakeStore) Row(ctx context.Context, ref sheets.SheetRef, rowIndex int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := rowIndex - 2
	if i < 0 || i >= len(f.rows) {
		return []string{}, nil
	}
	return append([]string(nil), f.rows[i]...), nil
}

func (f *fakeStore) UpdateCell(ctx context.Context, ref sheets.SheetRef, u sheets.CellUpdate) error {
	return f.BatchUpdate(ctx, ref, []sheets.CellUpdate{u})
}

func (f *fakeStore) BatchUpdate(ctx context.Context, ref sheets.SheetRef, updates []sheets.CellUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	for _, u := range updates {
		i := u.RowIndex - 2
		if i < 0 || i >= len(f.rows) {
			return fmt.Errorf("fake store: row %d out of range", u.RowIndex)
		}
		for len(f.rows[i]) <= u.Column {
			f.rows[i] = append(f.rows[i], "")
		}
		f.rows[i][u.Column] = u.Value
	}
	f.writes++
	return nil
}

func (f *fakeStore) AppendRow(ctx context.Context, ref sheets.SheetRef, values []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, append([]string(nil), values...))
	f.writes++
	return nil
}

func (f *fakeStore) cell(rowIndex int, column string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	col := columnIndex(f.header, column)
	i := rowIndex - 2
	if col < 0 || i < 0 || i >= len(f.rows) || col >= len(f.rows[i]) {
		return ""
	}
	return f.rows[i][col]
}

func (f *fakeStore) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// fakeLockRepository arbitrates claims in memory with the same
// first-writer-wins semantics as the lead_locks table.
type fakeLockRepository struct {
	mu      sync.Mutex
	holders map[int]string
}

func newFakeLockRepository() *fakeLockRepository {
	return &fakeLockRepository{holders: make(map[int]string)}
}

func (f *fakeLockRepository) Acquire(ctx context.Context, ref sheets.SheetRef, rowIndex int, agentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, held := f.holders[rowIndex]; held {
		return ErrLeadAlreadyClaimed
	}
	f.holders[rowIndex] = agentID
	return nil
}

func (f *fakeLockRepository) Release(ctx context.Context, ref sheets.SheetRef, rowIndex int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.holders, rowIndex)
	return nil
}

func (f *fakeLockRepository) holder(rowIndex int) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	agent, ok := f.holders[rowIndex]
	return agent, ok
}

// fixedConfig satisfies ConfigSource with a static ref or error.
type fixedConfig struct {
	ref sheets.SheetRef
	err error
}

func (c fixedConfig) Ref(ctx context.Context) (sheets.SheetRef, error) {
	if c.err != nil {
		return sheets.SheetRef{}, c.err
	}
	return c.ref, nil
}

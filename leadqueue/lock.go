package leadqueue

import (
	"context"
	"errors"
	"fmt"

	"leadflow/sheets"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrLeadAlreadyClaimed signals that another agent holds the lock.
	ErrLeadAlreadyClaimed = errors.New("leadqueue: lead already claimed")
)

// LockRepository is the strongly-consistent arbitration point for lead
// claims. The spreadsheet has no conditional writes, so mutual exclusion
// lives here; the sheet's Lock_Status cell is advisory audit text only.
type LockRepository interface {
	// Acquire records the claim, or returns ErrLeadAlreadyClaimed when the
	// row is already held.
	Acquire(ctx context.Context, ref sheets.SheetRef, rowIndex int, agentID string) error
	// Release drops the claim. Releasing an unheld row is a no-op.
	Release(ctx context.Context, ref sheets.SheetRef, rowIndex int) error
}

// PGLockRepository implements LockRepository on the lead_locks table. The
// unique key on (sheet_id, tab_name, row_index) turns concurrent claims
// into exactly one winner.
type PGLockRepository struct {
	pool *pgxpool.Pool
}

func NewLockRepository(pool *pgxpool.Pool) *PGLockRepository {
	return &PGLockRepository{pool: pool}
}

func (r *PGLockRepository) Acquire(ctx context.Context, ref sheets.SheetRef, rowIndex int, agentID string) error {
	const insertSQL = `
		INSERT INTO lead_locks (sheet_id, tab_name, row_index, agent_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (sheet_id, tab_name, row_index) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, insertSQL, ref.SheetID, ref.TabName, rowIndex, agentID)
	if err != nil {
		return fmt.Errorf("leadqueue: acquire lock row %d: %w", rowIndex, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadAlreadyClaimed
	}
	return nil
}

func (r *PGLockRepository) Release(ctx context.Context, ref sheets.SheetRef, rowIndex int) error {
	const deleteSQL = `
		DELETE FROM lead_locks
		WHERE sheet_id = $1 AND tab_name = $2 AND row_index = $3
	`

	if _, err := r.pool.Exec(ctx, deleteSQL, ref.SheetID, ref.TabName, rowIndex); err != nil {
		return fmt.Errorf("leadqueue: release lock row %d: %w", rowIndex, err)
	}
	return nil
}

// LockManager claims and releases leads: the repository arbitrates, then a
// human-readable marker is written to the row's Lock_Status cell so the
// sheet itself shows who is working the lead.
type LockManager struct {
	locks LockRepository
	store sheets.Store
}

func NewLockManager(locks LockRepository, store sheets.Store) *LockManager {
	return &LockManager{locks: locks, store: store}
}

// Claim acquires the lock for agentID and writes the advisory marker. If
// the marker write fails the lock is released again so a retry isn't
// blocked by our own half-finished claim.
func (m *LockManager) Claim(ctx context.Context, ref sheets.SheetRef, rowIndex int, agentID string) error {
	if err := m.locks.Acquire(ctx, ref, rowIndex, agentID); err != nil {
		return err
	}

	if err := m.writeMarker(ctx, ref, rowIndex, fmt.Sprintf("claimed by agent %s", agentID)); err != nil {
		if relErr := m.locks.Release(ctx, ref, rowIndex); relErr != nil {
			return errors.Join(err, relErr)
		}
		return err
	}
	return nil
}

// Release clears the advisory marker and drops the lock. A row whose
// marker cell is already empty (or whose sheet no longer has a Lock_Status
// column) releases cleanly.
func (m *LockManager) Release(ctx context.Context, ref sheets.SheetRef, rowIndex int) error {
	if err := m.writeMarker(ctx, ref, rowIndex, ""); err != nil {
		return err
	}
	return m.locks.Release(ctx, ref, rowIndex)
}

func (m *LockManager) writeMarker(ctx context.Context, ref sheets.SheetRef, rowIndex int, value string) error {
	header, err := m.store.Header(ctx, ref)
	if err != nil {
		return fmt.Errorf("leadqueue: read header: %w", err)
	}

	col := columnIndex(header, ColLockStatus)
	if col < 0 {
		// No marker column; the repository lock alone carries the claim.
		return nil
	}

	if err := m.store.UpdateCell(ctx, ref, sheets.CellUpdate{RowIndex: rowIndex, Column: col, Value: value}); err != nil {
		return fmt.Errorf("leadqueue: write lock marker row %d: %w", rowIndex, err)
	}
	return nil
}

package leadqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadflow/sheets"
)

var (
	// ErrInvalidDisposition signals an outcome code outside the allowed set.
	ErrInvalidDisposition = errors.New("leadqueue: invalid disposition")
	// ErrMissingCallback signals a CB disposition without CB_Date/CB_Time.
	ErrMissingCallback = errors.New("leadqueue: CB disposition requires CB_Date and CB_Time")
	// ErrMissingAppointment signals a BOOK disposition without
	// Appointment_Date/Appointment_Time.
	ErrMissingAppointment = errors.New("leadqueue: BOOK disposition requires Appointment_Date and Appointment_Time")
)

// timestampLayout is the fixed format written to the Timestamp column.
const timestampLayout = "2006-01-02 15:04:05"

// Writer validates an agent-submitted disposition and writes it back to
// the sheet in one batched update, then releases the lead's lock.
type Writer struct {
	store sheets.Store
	locks LockRepository
	now   func() time.Time
}

func NewWriter(store sheets.Store, locks LockRepository) *Writer {
	return &Writer{
		store: store,
		locks: locks,
		now:   time.Now,
	}
}

// WithClock overrides the writer's time source, for tests.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

// Apply validates and persists a disposition for the given row.
//
// Validation runs before any store access. On success one batched update
// sets Disposition (canonical spelling), Agent_ID, Timestamp, clears
// Lock_Status, and writes every extra key that matches a known column;
// unknown extra keys are silently ignored. Column positions come from the
// header row read at call time, so the sheet may be reordered between
// calls. Re-applying the same payload lands on the same final cell values.
func (w *Writer) Apply(ctx context.Context, ref sheets.SheetRef, rowIndex int, disposition, agentID string, extra map[string]string) error {
	canonical, err := validateDisposition(disposition, extra)
	if err != nil {
		return err
	}

	header, err := w.store.Header(ctx, ref)
	if err != nil {
		return fmt.Errorf("leadqueue: read header: %w", err)
	}

	updates := make([]sheets.CellUpdate, 0, 4+len(extra))
	set := func(column, value string) error {
		col := columnIndex(header, column)
		if col < 0 {
			return fmt.Errorf("leadqueue: sheet has no %s column", column)
		}
		updates = append(updates, sheets.CellUpdate{RowIndex: rowIndex, Column: col, Value: value})
		return nil
	}

	if err := set(ColDisposition, canonical); err != nil {
		return err
	}
	if err := set(ColAgentID, agentID); err != nil {
		return err
	}
	if err := set(ColTimestamp, w.now().Format(timestampLayout)); err != nil {
		return err
	}
	if err := set(ColLockStatus, ""); err != nil {
		return err
	}

	reserved := map[string]bool{
		ColDisposition: true,
		ColAgentID:     true,
		ColTimestamp:   true,
		ColLockStatus:  true,
	}
	for key, value := range extra {
		if reserved[key] {
			continue
		}
		col := columnIndex(header, key)
		if col < 0 {
			continue
		}
		updates = append(updates, sheets.CellUpdate{RowIndex: rowIndex, Column: col, Value: value})
	}

	if err := w.store.BatchUpdate(ctx, ref, updates); err != nil {
		return fmt.Errorf("leadqueue: write disposition row %d: %w", rowIndex, err)
	}

	return w.locks.Release(ctx, ref, rowIndex)
}

func validateDisposition(disposition string, extra map[string]string) (string, error) {
	canonical := CanonicalDisposition(disposition)

	switch canonical {
	case DispositionNA, DispositionNI, DispositionDNC:
		return canonical, nil
	case DispositionCB:
		if extra[ColCBDate] == "" || extra[ColCBTime] == "" {
			return "", ErrMissingCallback
		}
		return canonical, nil
	case DispositionBOOK:
		if extra[ColAppointmentDate] == "" || extra[ColAppointmentTime] == "" {
			return "", ErrMissingAppointment
		}
		return canonical, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDisposition, disposition)
	}
}

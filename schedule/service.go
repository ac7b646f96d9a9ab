package schedule

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"leadflow/sheets"

	"github.com/google/uuid"
)

// ConfigSource resolves the configured sheet for appointment sync. An
// unconfigured system simply skips the sync.
type ConfigSource interface {
	Ref(ctx context.Context) (sheets.SheetRef, error)
}

// SyncWarning wraps a sheet-sync failure that followed a successful local
// write. The appointment is saved; callers surface the warning instead of
// failing the request.
type SyncWarning struct {
	err error
}

func (w *SyncWarning) Error() string {
	return fmt.Sprintf("schedule: saved locally but sheet sync failed: %v", w.err)
}

func (w *SyncWarning) Unwrap() error { return w.err }

// Service exposes availability and appointment operations.
type Service struct {
	repo  Repository
	store sheets.Store
	cfg   ConfigSource
	now   func() time.Time
	idGen func() string
}

func NewService(repo Repository, store sheets.Store, cfg ConfigSource) *Service {
	return &Service{
		repo:  repo,
		store: store,
		cfg:   cfg,
		now:   time.Now,
		idGen: func() string { return uuid.NewString() },
	}
}

// ListSlots returns every availability window.
func (s *Service) ListSlots(ctx context.Context) ([]Slot, error) {
	return s.repo.ListSlots(ctx)
}

// CreateSlot adds an availability window. AgentID falls back to callerID
// when the request leaves it empty.
func (s *Service) CreateSlot(ctx context.Context, callerID string, req CreateSlotRequest) (Slot, error) {
	agentID := req.AgentID
	if agentID == "" {
		agentID = callerID
	}
	if req.Day == "" || req.StartTime == "" || req.EndTime == "" {
		return Slot{}, fmt.Errorf("schedule: day, start_time and end_time are required")
	}
	if req.StartTime >= req.EndTime {
		return Slot{}, fmt.Errorf("schedule: start_time must be before end_time")
	}

	return s.repo.CreateSlot(ctx, CreateSlotParams{
		AgentID:   agentID,
		Day:       req.Day,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
}

// ListAppointments returns the caller's appointments, newest first.
func (s *Service) ListAppointments(ctx context.Context, ownerID string) ([]Appointment, error) {
	return s.repo.ListAppointments(ctx, ownerID)
}

// CreateAppointment books an appointment and mirrors it to the sheet. A
// failed sync returns the saved appointment together with a *SyncWarning.
func (s *Service) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (Appointment, error) {
	if req.Day == "" || req.Time == "" {
		return Appointment{}, fmt.Errorf("schedule: day and time are required")
	}

	appt, err := s.repo.CreateAppointment(ctx, CreateAppointmentParams{
		ID:           s.idGen(),
		OwnerID:      req.OwnerID,
		LeadRowIndex: req.LeadRowIndex,
		Day:          req.Day,
		Time:         req.Time,
		Notes:        req.Notes,
		Status:       StatusScheduled,
	})
	if err != nil {
		return Appointment{}, err
	}

	if err := s.appendToSheet(ctx, appt, req.OwnerName); err != nil {
		return appt, &SyncWarning{err: err}
	}
	return appt, nil
}

// UpdateAppointment reschedules or cancels and mirrors the change to the
// sheet, again downgrading sync failures to a warning.
func (s *Service) UpdateAppointment(ctx context.Context, id, ownerID, ownerName string, req UpdateAppointmentRequest) (Appointment, error) {
	if req.Status != nil {
		switch *req.Status {
		case StatusScheduled, StatusRescheduled, StatusCancelled:
		default:
			return Appointment{}, fmt.Errorf("schedule: invalid status %q", *req.Status)
		}
	}

	appt, err := s.repo.UpdateAppointment(ctx, id, ownerID, UpdateAppointmentParams{
		Day:    req.Day,
		Time:   req.Time,
		Notes:  req.Notes,
		Status: req.Status,
	})
	if err != nil {
		return Appointment{}, err
	}

	if err := s.updateInSheet(ctx, appt, ownerName); err != nil {
		return appt, &SyncWarning{err: err}
	}
	return appt, nil
}

func (s *Service) appendToSheet(ctx context.Context, appt Appointment, ownerName string) error {
	ref, err := s.cfg.Ref(ctx)
	if err != nil {
		// Nothing configured yet; local booking stands on its own.
		return nil
	}
	ref.TabName = appointmentsTab(ref)

	return s.store.AppendRow(ctx, ref, appointmentRow(appt, ownerName, appt.CreatedAt))
}

func (s *Service) updateInSheet(ctx context.Context, appt Appointment, ownerName string) error {
	ref, err := s.cfg.Ref(ctx)
	if err != nil {
		return nil
	}
	ref.TabName = appointmentsTab(ref)

	rows, err := s.store.Rows(ctx, ref)
	if err != nil {
		return err
	}

	// Appointment rows carry their id in column A; data starts at row 2.
	rowIndex := -1
	for i, row := range rows {
		if len(row) > 0 && row[0] == appt.ID {
			rowIndex = i + 2
			break
		}
	}
	if rowIndex < 0 {
		return fmt.Errorf("appointment %s not found in sheet", appt.ID)
	}

	values := appointmentRow(appt, ownerName, appt.UpdatedAt)
	updates := make([]sheets.CellUpdate, len(values))
	for col, v := range values {
		updates[col] = sheets.CellUpdate{RowIndex: rowIndex, Column: col, Value: v}
	}
	return s.store.BatchUpdate(ctx, ref, updates)
}

// appointmentsTab names the sync tab alongside the configured lead tab.
func appointmentsTab(ref sheets.SheetRef) string {
	return ref.TabName + "_Appointments"
}

func appointmentRow(appt Appointment, ownerName string, stamp time.Time) []string {
	leadRef := ""
	if appt.LeadRowIndex != nil {
		leadRef = strconv.Itoa(*appt.LeadRowIndex)
	}
	return []string{
		appt.ID,
		ownerName,
		leadRef,
		appt.Day,
		appt.Time,
		appt.Notes,
		string(appt.Status),
		stamp.Format("2006-01-02 15:04:05"),
	}
}

// IsSyncWarning reports whether err is a sheet-sync warning carrying a
// successfully saved appointment.
func IsSyncWarning(err error) bool {
	var w *SyncWarning
	return errors.As(err, &w)
}

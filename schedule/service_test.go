package schedule

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"leadflow/sheets"
)

func TestService_CreateSlotDefaultsToCaller(t *testing.T) {
	svc, _, _ := newFixture(t)

	slot, err := svc.CreateSlot(context.Background(), "agent-1", CreateSlotRequest{
		Day:       "2025-07-01",
		StartTime: "09:00",
		EndTime:   "10:00",
	})
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}
	if slot.AgentID != "agent-1" {
		t.Fatalf("expected agent defaulted to caller, got %q", slot.AgentID)
	}
}

func TestService_CreateSlotValidation(t *testing.T) {
	svc, _, _ := newFixture(t)
	ctx := context.Background()

	if _, err := svc.CreateSlot(ctx, "agent-1", CreateSlotRequest{Day: "2025-07-01"}); err == nil {
		t.Fatal("expected error for missing times")
	}
	if _, err := svc.CreateSlot(ctx, "agent-1", CreateSlotRequest{
		Day: "2025-07-01", StartTime: "11:00", EndTime: "10:00",
	}); err == nil {
		t.Fatal("expected error for inverted window")
	}
}

func TestService_DuplicateSlotRejected(t *testing.T) {
	svc, _, _ := newFixture(t)
	ctx := context.Background()

	req := CreateSlotRequest{Day: "2025-07-01", StartTime: "09:00", EndTime: "10:00"}
	if _, err := svc.CreateSlot(ctx, "agent-1", req); err != nil {
		t.Fatalf("first slot: %v", err)
	}
	if _, err := svc.CreateSlot(ctx, "agent-1", req); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

func TestService_CreateAppointmentSyncsToSheet(t *testing.T) {
	svc, _, store := newFixture(t)

	appt, err := svc.CreateAppointment(context.Background(), CreateAppointmentRequest{
		OwnerID:   "agent-1",
		OwnerName: "Alice Agent",
		Day:       "2025-07-02",
		Time:      "14:00",
		Notes:     "ask for Bob",
	})
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	if appt.Status != StatusScheduled {
		t.Fatalf("expected scheduled status, got %s", appt.Status)
	}
	if len(store.appended) != 1 {
		t.Fatalf("expected one synced row, got %d", len(store.appended))
	}
	row := store.appended[0]
	if row[0] != appt.ID || row[1] != "Alice Agent" || row[3] != "2025-07-02" {
		t.Fatalf("unexpected synced row: %v", row)
	}
}

func TestService_SyncFailureIsWarningNotError(t *testing.T) {
	svc, _, store := newFixture(t)
	store.failAppend = errors.New("quota exceeded")

	appt, err := svc.CreateAppointment(context.Background(), CreateAppointmentRequest{
		OwnerID:   "agent-1",
		OwnerName: "Alice Agent",
		Day:       "2025-07-02",
		Time:      "14:00",
	})
	if !IsSyncWarning(err) {
		t.Fatalf("expected sync warning, got %v", err)
	}
	if appt.ID == "" {
		t.Fatal("expected appointment saved despite sync failure")
	}
}

func TestService_UpdateAppointmentRewritesSheetRow(t *testing.T) {
	svc, _, store := newFixture(t)
	ctx := context.Background()

	appt, err := svc.CreateAppointment(ctx, CreateAppointmentRequest{
		OwnerID:   "agent-1",
		OwnerName: "Alice Agent",
		Day:       "2025-07-02",
		Time:      "14:00",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cancelled := StatusCancelled
	updated, err := svc.UpdateAppointment(ctx, appt.ID, "agent-1", "Alice Agent", UpdateAppointmentRequest{
		Status: &cancelled,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}
	if store.updates == 0 {
		t.Fatal("expected sheet row rewritten")
	}
}

func TestService_UpdateForeignAppointmentRejected(t *testing.T) {
	svc, _, _ := newFixture(t)
	ctx := context.Background()

	appt, err := svc.CreateAppointment(ctx, CreateAppointmentRequest{
		OwnerID:   "agent-1",
		OwnerName: "Alice Agent",
		Day:       "2025-07-02",
		Time:      "14:00",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.UpdateAppointment(ctx, appt.ID, "agent-2", "Mallory", UpdateAppointmentRequest{}); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound for foreign owner, got %v", err)
	}
}

func newFixture(t *testing.T) (*Service, *fakeScheduleRepo, *fakeSheetStore) {
	t.Helper()
	repo := newFakeScheduleRepo()
	store := &fakeSheetStore{}
	svc := NewService(repo, store, staticConfig{})
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc, repo, store
}

type staticConfig struct{}

func (staticConfig) Ref(ctx context.Context) (sheets.SheetRef, error) {
	return sheets.SheetRef{SheetID: "sheet-1", TabName: "Leads"}, nil
}

type fakeScheduleRepo struct {
	slots        map[string]Slot
	appointments map[string]Appointment
	nextID       int
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{
		slots:        make(map[string]Slot),
		appointments: make(map[string]Appointment),
		nextID:       1,
	}
}

func (f *fakeScheduleRepo) ListSlots(ctx context.Context) ([]Slot, error) {
	out := make([]Slot, 0, len(f.slots))
	for _, s := range f.slots {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeScheduleRepo) CreateSlot(ctx context.Context, params CreateSlotParams) (Slot, error) {
	key := fmt.Sprintf("%s|%s|%s|%s", params.AgentID, params.Day, params.StartTime, params.EndTime)
	if _, exists := f.slots[key]; exists {
		return Slot{}, ErrSlotTaken
	}
	slot := Slot{
		ID:        fmt.Sprintf("slot-%d", f.nextID),
		AgentID:   params.AgentID,
		Day:       params.Day,
		StartTime: params.StartTime,
		EndTime:   params.EndTime,
		CreatedAt: time.Now().UTC(),
	}
	f.nextID++
	f.slots[key] = slot
	return slot, nil
}

func (f *fakeScheduleRepo) ListAppointments(ctx context.Context, ownerID string) ([]Appointment, error) {
	out := make([]Appointment, 0, len(f.appointments))
	for _, a := range f.appointments {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) CreateAppointment(ctx context.Context, params CreateAppointmentParams) (Appointment, error) {
	appt := Appointment{
		ID:           params.ID,
		OwnerID:      params.OwnerID,
		LeadRowIndex: params.LeadRowIndex,
		Day:          params.Day,
		Time:         params.Time,
		Notes:        params.Notes,
		Status:       params.Status,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	f.appointments[appt.ID] = appt
	return appt, nil
}

func (f *fakeScheduleRepo) GetAppointment(ctx context.Context, id, ownerID string) (Appointment, error) {
	appt, ok := f.appointments[id]
	if !ok || appt.OwnerID != ownerID {
		return Appointment{}, ErrAppointmentNotFound
	}
	return appt, nil
}

func (f *fakeScheduleRepo) UpdateAppointment(ctx context.Context, id, ownerID string, params UpdateAppointmentParams) (Appointment, error) {
	appt, ok := f.appointments[id]
	if !ok || appt.OwnerID != ownerID {
		return Appointment{}, ErrAppointmentNotFound
	}
	if params.Day != nil {
		appt.Day = *params.Day
	}
	if params.Time != nil {
		appt.Time = *params.Time
	}
	if params.Notes != nil {
		appt.Notes = *params.Notes
	}
	if params.Status != nil {
		appt.Status = *params.Status
	}
	appt.UpdatedAt = time.Now().UTC()
	f.appointments[id] = appt
	return appt, nil
}

// fakeSheetStore records appended rows and serves them back for updates.
type fakeSheetStore struct {
	appended   [][]string
	updates    int
	failAppend error
}

func (f *fakeSheetStore) Tabs(ctx context.Context, sheetID string) ([]string, error) {
	return []string{"Leads", "Leads_Appointments"}, nil
}

func (f *fakeSheetStore) Header(ctx context.Context, ref sheets.SheetRef) ([]string, error) {
	return []string{}, nil
}

func (f *fakeSheetStore) Rows(ctx context.Context, ref sheets.SheetRef) ([][]string, error) {
	return f.appended, nil
}

func (f *fakeSheetStore) Row(ctx context.Context, ref sheets.SheetRef, rowIndex int) ([]string, error) {
	return []string{}, nil
}

func (f *fakeSheetStore) UpdateCell(ctx context.Context, ref sheets.SheetRef, u sheets.CellUpdate) error {
	f.updates++
	return nil
}

func (f *fakeSheetStore) BatchUpdate(ctx context.Context, ref sheets.SheetRef, updates []sheets.CellUpdate) error {
	f.updates++
	return nil
}

func (f *fakeSheetStore) AppendRow(ctx context.Context, ref sheets.SheetRef, values []string) error {
	if f.failAppend != nil {
		return f.failAppend
	}
	f.appended = append(f.appended, values)
	return nil
}

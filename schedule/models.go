package schedule

import "time"

// AppointmentStatus tracks the lifecycle of a booked appointment.
type AppointmentStatus string

const (
	StatusScheduled   AppointmentStatus = "scheduled"
	StatusRescheduled AppointmentStatus = "rescheduled"
	StatusCancelled   AppointmentStatus = "cancelled"
)

// Slot is an agent's availability window. Day is YYYY-MM-DD; times are
// HH:MM, matching what the sheet and the UI exchange.
type Slot struct {
	ID        string
	AgentID   string
	Day       string
	StartTime string
	EndTime   string
	CreatedAt time.Time
}

// Appointment is a booked meeting owned by the agent who created it.
// LeadRowIndex links back to the sheet row the booking came from, when the
// appointment was booked off the lead queue.
type Appointment struct {
	ID           string
	OwnerID      string
	LeadRowIndex *int
	Day          string
	Time         string
	Notes        string
	Status       AppointmentStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateSlotRequest adds an availability window. AgentID defaults to the
// caller when empty.
type CreateSlotRequest struct {
	AgentID   string `json:"agent_id"`
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// CreateAppointmentRequest books an appointment for the calling agent.
// OwnerName rides along for the sheet sync row.
type CreateAppointmentRequest struct {
	OwnerID      string
	OwnerName    string
	LeadRowIndex *int   `json:"lead_row_index"`
	Day          string `json:"day"`
	Time         string `json:"time"`
	Notes        string `json:"notes"`
}

// UpdateAppointmentRequest reschedules or cancels; nil fields keep the
// stored value.
type UpdateAppointmentRequest struct {
	Day    *string            `json:"day"`
	Time   *string            `json:"time"`
	Notes  *string            `json:"notes"`
	Status *AppointmentStatus `json:"status"`
}

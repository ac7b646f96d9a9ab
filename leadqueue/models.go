package leadqueue

import "strings"

// Sheet column names the queue cares about. Positions are resolved against
// the header row on every call, so the external sheet may reorder columns
// between calls.
const (
	ColDisposition      = "Disposition"
	ColCBDate           = "CB_Date"
	ColCBTime           = "CB_Time"
	ColAppointmentDate  = "Appointment_Date"
	ColAppointmentTime  = "Appointment_Time"
	ColAppointmentNotes = "Appointment_Notes"
	ColAgentID          = "Agent_ID"
	ColTimestamp        = "Timestamp"
	ColLockStatus       = "Lock_Status"
)

// Dispositions an agent may submit after working a lead.
const (
	DispositionNA   = "NA"   // no answer
	DispositionNI   = "NI"   // not interested
	DispositionDNC  = "DNC"  // do not call
	DispositionCB   = "CB"   // callback scheduled
	DispositionBOOK = "BOOK" // appointment booked
)

// legacyBooked is the historical spelling still present in older sheet
// rows. It is accepted on read and as input but never written back.
const legacyBooked = "Booked"

// Lead is one spreadsheet row with its 1-based sheet row index attached so
// downstream writes can address it.
type Lead struct {
	RowIndex int
	Fields   map[string]string
}

// CanonicalDisposition trims and normalizes a disposition value, folding
// the legacy booked spelling into BOOK.
func CanonicalDisposition(raw string) string {
	d := strings.TrimSpace(raw)
	if strings.EqualFold(d, legacyBooked) || strings.EqualFold(d, DispositionBOOK) {
		return DispositionBOOK
	}
	return d
}

// terminal reports whether a canonicalized disposition removes a row from
// the queue permanently. "Called" appears in legacy data only; agents can
// no longer submit it but rows carrying it stay excluded.
func terminal(canonical string) bool {
	switch canonical {
	case "Called", DispositionNA, DispositionNI, DispositionDNC, DispositionBOOK:
		return true
	default:
		return false
	}
}

// columnIndex finds a column's position in the header row, or -1.
func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

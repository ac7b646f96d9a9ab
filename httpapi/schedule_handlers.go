package httpapi

import (
	"errors"
	"net/http"

	"leadflow/auth"
	"leadflow/schedule"
)

// ScheduleHandler serves availability windows and appointments.
type ScheduleHandler struct {
	svc   *schedule.Service
	users *auth.Service
}

func NewScheduleHandler(svc *schedule.Service, users *auth.Service) *ScheduleHandler {
	return &ScheduleHandler{svc: svc, users: users}
}

// ListSlots returns every availability window (admin).
func (h *ScheduleHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.svc.ListSlots(r.Context())
	if err != nil {
		ErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	JSONResponse(w, http.StatusOK, slots)
}

// CreateSlot adds an availability window (admin); the agent defaults to
// the caller.
func (h *ScheduleHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	var req schedule.CreateSlotRequest
	if err := ParseJSONBody(r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	slot, err := h.svc.CreateSlot(r.Context(), CallerID(r), req)
	if err != nil {
		if errors.Is(err, schedule.ErrSlotTaken) {
			ErrorResponse(w, http.StatusConflict, "slot already exists")
			return
		}
		ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	JSONResponse(w, http.StatusCreated, slot)
}

// ListAppointments returns the caller's appointments.
func (h *ScheduleHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	appts, err := h.svc.ListAppointments(r.Context(), CallerID(r))
	if err != nil {
		ErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	JSONResponse(w, http.StatusOK, appts)
}

// CreateAppointment books an appointment and mirrors it to the sheet.
func (h *ScheduleHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req schedule.CreateAppointmentRequest
	if err := ParseJSONBody(r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.OwnerID = CallerID(r)
	req.OwnerName = h.callerName(r)

	appt, err := h.svc.CreateAppointment(r.Context(), req)
	if err != nil {
		if schedule.IsSyncWarning(err) {
			JSONResponse(w, http.StatusCreated, map[string]any{
				"appointment": appt,
				"warning":     err.Error(),
			})
			return
		}
		ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	JSONResponse(w, http.StatusCreated, map[string]any{"appointment": appt})
}

// UpdateAppointment reschedules or cancels one of the caller's
// appointments.
func (h *ScheduleHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	var req schedule.UpdateAppointmentRequest
	if err := ParseJSONBody(r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	appt, err := h.svc.UpdateAppointment(r.Context(), r.PathValue("id"), CallerID(r), h.callerName(r), req)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrAppointmentNotFound):
			ErrorResponse(w, http.StatusNotFound, "appointment not found")
		case schedule.IsSyncWarning(err):
			JSONResponse(w, http.StatusOK, map[string]any{
				"appointment": appt,
				"warning":     err.Error(),
			})
		default:
			ErrorResponse(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	JSONResponse(w, http.StatusOK, map[string]any{"appointment": appt})
}

func (h *ScheduleHandler) callerName(r *http.Request) string {
	user, err := h.users.GetUserByID(r.Context(), CallerID(r))
	if err != nil {
		return ""
	}
	return user.Name
}

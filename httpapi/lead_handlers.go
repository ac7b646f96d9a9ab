package httpapi

import (
	"errors"
	"net/http"

	"leadflow/leadqueue"
	"leadflow/sheetcfg"
)

// LeadHandler serves the lead queue: next-lead claims and disposition
// write-backs.
type LeadHandler struct {
	queue  *leadqueue.Queue
	writer *leadqueue.Writer
}

func NewLeadHandler(queue *leadqueue.Queue, writer *leadqueue.Writer) *LeadHandler {
	return &LeadHandler{queue: queue, writer: writer}
}

// NextLead claims the next eligible lead for the calling agent.
func (h *LeadHandler) NextLead(w http.ResponseWriter, r *http.Request) {
	res, err := h.queue.NextLead(r.Context(), CallerID(r))
	if err != nil {
		switch {
		case errors.Is(err, sheetcfg.ErrNotConfigured):
			ErrorResponse(w, http.StatusBadRequest, "sheet not configured")
		case errors.Is(err, leadqueue.ErrNoLeadsAvailable):
			ErrorResponse(w, http.StatusNotFound, "no leads available")
		default:
			ErrorResponse(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	JSONResponse(w, http.StatusOK, map[string]any{
		"lead":        res.Lead.Fields,
		"row_index":   res.Lead.RowIndex,
		"queue_count": res.QueueCount,
	})
}

type dispositionRequest struct {
	RowIndex    int               `json:"row_index"`
	Disposition string            `json:"disposition"`
	ExtraData   map[string]string `json:"extra_data"`
}

// Disposition records the outcome of a worked lead and releases its lock.
func (h *LeadHandler) Disposition(w http.ResponseWriter, r *http.Request) {
	var req dispositionRequest
	if err := ParseJSONBody(r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RowIndex < 2 || req.Disposition == "" {
		ErrorResponse(w, http.StatusBadRequest, "row_index and disposition are required")
		return
	}

	ref, err := h.queue.Ref(r.Context())
	if err != nil {
		if errors.Is(err, sheetcfg.ErrNotConfigured) {
			ErrorResponse(w, http.StatusBadRequest, "sheet not configured")
			return
		}
		ErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	err = h.writer.Apply(r.Context(), ref, req.RowIndex, req.Disposition, CallerID(r), req.ExtraData)
	if err != nil {
		switch {
		case errors.Is(err, leadqueue.ErrInvalidDisposition),
			errors.Is(err, leadqueue.ErrMissingCallback),
			errors.Is(err, leadqueue.ErrMissingAppointment):
			ErrorResponse(w, http.StatusBadRequest, err.Error())
		default:
			ErrorResponse(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	body := map[string]any{"status": "success"}
	if leadqueue.CanonicalDisposition(req.Disposition) == leadqueue.DispositionBOOK {
		body["celebration"] = true
	}
	JSONResponse(w, http.StatusOK, body)
}

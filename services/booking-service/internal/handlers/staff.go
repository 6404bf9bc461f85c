package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/md-rashed-zaman/clinicslots/libs/httpx"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
)

// StaffHandler serves the provider's management API. Every route is expected
// to sit behind RequireStaff.
type StaffHandler struct {
	mgr    *booking.Manager
	logger *slog.Logger
}

func NewStaffHandler(mgr *booking.Manager, logger *slog.Logger) *StaffHandler {
	return &StaffHandler{mgr: mgr, logger: logger}
}

type appointmentActionRequest struct {
	AppointmentID string `json:"appointment_id"`
	Reason        string `json:"reason"`
}

type rescheduleRequest struct {
	AppointmentID string `json:"appointment_id"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

type createRuleRequest struct {
	DayOfWeek   *int   `json:"day_of_week"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Blocked     bool   `json:"blocked"`
	BlockReason string `json:"block_reason"`
}

type deleteRuleRequest struct {
	RuleID string `json:"rule_id"`
}

type createTypeRequest struct {
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	IsActive        *bool  `json:"is_active"`
}

func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	appts, err := h.mgr.List(r.Context(), actorFrom(r.Context()), limit)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	items := make([]appointmentView, 0, len(appts))
	for _, a := range appts {
		items = append(items, toAppointmentView(a))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *StaffHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(req appointmentActionRequest, actor model.Actor) (model.Appointment, error) {
		return h.mgr.Confirm(r.Context(), booking.Ref{ID: req.AppointmentID}, actor)
	})
}

func (h *StaffHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(req appointmentActionRequest, actor model.Actor) (model.Appointment, error) {
		return h.mgr.Cancel(r.Context(), booking.Ref{ID: req.AppointmentID}, actor, req.Reason)
	})
}

func (h *StaffHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(req appointmentActionRequest, actor model.Actor) (model.Appointment, error) {
		return h.mgr.MarkCompleted(r.Context(), req.AppointmentID, actor)
	})
}

func (h *StaffHandler) NoShow(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(req appointmentActionRequest, actor model.Actor) (model.Appointment, error) {
		return h.mgr.MarkNoShow(r.Context(), req.AppointmentID, actor)
	})
}

func (h *StaffHandler) action(w http.ResponseWriter, r *http.Request, do func(appointmentActionRequest, model.Actor) (model.Appointment, error)) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req appointmentActionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		badRequest(w, "appointment_id is required")
		return
	}
	appt, err := do(req, actorFrom(r.Context()))
	if err != nil {
		writeBookingError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointmentView(appt))
}

// Reschedule returns the new appointment, including its fresh booking token.
func (h *StaffHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req rescheduleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	start, err := parseTimestamp("start_time", req.StartTime)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	end, err := parseTimestamp("end_time", req.EndTime)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	appt, err := h.mgr.Reschedule(r.Context(), strings.TrimSpace(req.AppointmentID), start, end, actorFrom(r.Context()))
	if err != nil {
		writeBookingError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toBookingView(appt))
}

// Rules handles GET (list) and POST (create) on the availability rules collection.
func (h *StaffHandler) Rules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rules, err := h.mgr.ListRules(r.Context(), actorFrom(r.Context()))
		if err != nil {
			writeBookingError(w, err)
			return
		}
		items := make([]ruleView, 0, len(rules))
		for _, rule := range rules {
			items = append(items, toRuleView(rule))
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		h.createRule(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		httpx.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

func (h *StaffHandler) createRule(w http.ResponseWriter, r *http.Request) {
	var req createRuleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	startMin, err := model.ParseClock(req.StartTime)
	if err != nil {
		badRequest(w, "start_time must be HH:MM")
		return
	}
	endMin, err := model.ParseClock(req.EndTime)
	if err != nil {
		badRequest(w, "end_time must be HH:MM")
		return
	}
	rule, err := h.mgr.CreateRule(r.Context(), actorFrom(r.Context()), model.AvailabilityRule{
		DayOfWeek:   req.DayOfWeek,
		Date:        req.Date,
		StartMinute: startMin,
		EndMinute:   endMin,
		Blocked:     req.Blocked,
		BlockReason: req.BlockReason,
	})
	if err != nil {
		writeBookingError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "availability rule created", "rule_id", rule.ID, "blocked", rule.Blocked)
	httpx.WriteJSON(w, http.StatusCreated, toRuleView(rule))
}

func (h *StaffHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req deleteRuleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.mgr.DeleteRule(r.Context(), actorFrom(r.Context()), strings.TrimSpace(req.RuleID)); err != nil {
		writeBookingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Types handles GET (list, including inactive) and POST (create).
func (h *StaffHandler) Types(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		types, err := h.mgr.ListTypes(r.Context())
		if err != nil {
			writeBookingError(w, err)
			return
		}
		items := make([]typeView, 0, len(types))
		for _, t := range types {
			items = append(items, toTypeView(t))
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		var req createTypeRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			badRequest(w, err.Error())
			return
		}
		active := req.IsActive == nil || *req.IsActive
		typ, err := h.mgr.CreateType(r.Context(), actorFrom(r.Context()), model.AppointmentType{
			Name:            req.Name,
			DurationMinutes: req.DurationMinutes,
			IsActive:        active,
		})
		if err != nil {
			writeBookingError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toTypeView(typ))
	default:
		w.Header().Set("Allow", "GET, POST")
		httpx.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

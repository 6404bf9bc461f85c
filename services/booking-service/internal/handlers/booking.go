package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/httpx"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
)

// BookingHandler serves the patient-facing API. Patients are identified only
// by the booking token returned from Create.
type BookingHandler struct {
	mgr    *booking.Manager
	logger *slog.Logger
	loc    *time.Location
}

func NewBookingHandler(mgr *booking.Manager, logger *slog.Logger, loc *time.Location) *BookingHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingHandler{mgr: mgr, logger: logger, loc: loc}
}

type createBookingRequest struct {
	AppointmentTypeID string               `json:"appointment_type_id"`
	StartTime         string               `json:"start_time"`
	EndTime           string               `json:"end_time"`
	Patient           model.PatientContact `json:"patient"`
}

type tokenRequest struct {
	Token  string `json:"token"`
	Reason string `json:"reason"`
}

type slotsResponse struct {
	Date              string     `json:"date"`
	AppointmentTypeID string     `json:"appointment_type_id"`
	Slots             []slotView `json:"slots"`
}

// Slots lists bookable times for one calendar day in the provider's zone.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	rawDate := strings.TrimSpace(q.Get("date"))
	day, err := time.ParseInLocation(model.DateLayout, rawDate, h.loc)
	if err != nil {
		badRequest(w, "date must be YYYY-MM-DD")
		return
	}
	typeID := strings.TrimSpace(q.Get("appointment_type_id"))

	tiles, err := h.mgr.Slots(r.Context(), day, typeID)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, slotsResponse{
		Date:              rawDate,
		AppointmentTypeID: typeID,
		Slots:             toSlotViews(tiles),
	})
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req createBookingRequest
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

	appt, err := h.mgr.Create(r.Context(), booking.CreateRequest{
		AppointmentTypeID: strings.TrimSpace(req.AppointmentTypeID),
		Start:             start,
		End:               end,
		Patient:           req.Patient,
	})
	if err != nil {
		writeBookingError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toBookingView(appt))
}

// View returns the appointment a booking token refers to.
func (h *BookingHandler) View(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	appt, err := h.mgr.View(r.Context(), strings.TrimSpace(r.URL.Query().Get("token")))
	if err != nil {
		writeBookingError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointmentView(appt))
}

func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.byToken(w, r, func(req tokenRequest) (model.Appointment, error) {
		return h.mgr.Confirm(r.Context(), booking.Ref{Token: req.Token}, model.ActorPatient)
	})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.byToken(w, r, func(req tokenRequest) (model.Appointment, error) {
		return h.mgr.Cancel(r.Context(), booking.Ref{Token: req.Token}, model.ActorPatient, req.Reason)
	})
}

func (h *BookingHandler) byToken(w http.ResponseWriter, r *http.Request, do func(tokenRequest) (model.Appointment, error)) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req tokenRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		badRequest(w, "token is required")
		return
	}
	appt, err := do(req)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointmentView(appt))
}

// Types lists the provider's appointment types for the booking widget.
func (h *BookingHandler) Types(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	types, err := h.mgr.ListTypes(r.Context())
	if err != nil {
		writeBookingError(w, err)
		return
	}
	out := make([]typeView, 0, len(types))
	for _, t := range types {
		if t.IsActive {
			out = append(out, toTypeView(t))
		}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
}

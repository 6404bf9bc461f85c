package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/httpx"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
)

type appointmentView struct {
	ID                 string               `json:"id"`
	AppointmentTypeID  string               `json:"appointment_type_id"`
	StartTime          string               `json:"start_time"`
	EndTime            string               `json:"end_time"`
	Status             model.Status         `json:"status"`
	Patient            model.PatientContact `json:"patient"`
	CancelledBy        model.Actor          `json:"cancelled_by,omitempty"`
	CancellationReason string               `json:"cancellation_reason,omitempty"`
	CancelledAt        string               `json:"cancelled_at,omitempty"`
	RescheduledFrom    string               `json:"rescheduled_from,omitempty"`
	CreatedAt          string               `json:"created_at"`
	UpdatedAt          string               `json:"updated_at"`
}

// bookingView is only returned to whoever created or moved the appointment.
type bookingView struct {
	appointmentView
	BookingToken string `json:"booking_token"`
}

type slotView struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type ruleView struct {
	ID          string `json:"id"`
	DayOfWeek   *int   `json:"day_of_week,omitempty"`
	Date        string `json:"date,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Blocked     bool   `json:"blocked"`
	BlockReason string `json:"block_reason,omitempty"`
}

type typeView struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	BufferMinutes   int    `json:"buffer_minutes"`
	IsActive        bool   `json:"is_active"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toAppointmentView(a model.Appointment) appointmentView {
	v := appointmentView{
		ID:                 a.ID,
		AppointmentTypeID:  a.AppointmentTypeID,
		StartTime:          formatTime(a.StartTime),
		EndTime:            formatTime(a.EndTime),
		Status:             a.Status,
		Patient:            a.Patient,
		CancelledBy:        a.CancelledBy,
		CancellationReason: a.CancellationReason,
		RescheduledFrom:    a.RescheduledFrom,
		CreatedAt:          formatTime(a.CreatedAt),
		UpdatedAt:          formatTime(a.UpdatedAt),
	}
	if a.CancelledAt != nil {
		v.CancelledAt = formatTime(*a.CancelledAt)
	}
	return v
}

func toBookingView(a model.Appointment) bookingView {
	return bookingView{appointmentView: toAppointmentView(a), BookingToken: a.BookingToken}
}

func toSlotViews(tiles []availability.Interval) []slotView {
	out := make([]slotView, 0, len(tiles))
	for _, t := range tiles {
		out = append(out, slotView{StartTime: formatTime(t.Start), EndTime: formatTime(t.End)})
	}
	return out
}

func toRuleView(r model.AvailabilityRule) ruleView {
	return ruleView{
		ID:          r.ID,
		DayOfWeek:   r.DayOfWeek,
		Date:        r.Date,
		StartTime:   model.FormatClock(r.StartMinute),
		EndTime:     model.FormatClock(r.EndMinute),
		Blocked:     r.Blocked,
		BlockReason: r.BlockReason,
	}
}

func toTypeView(t model.AppointmentType) typeView {
	return typeView{
		ID:              t.ID,
		Name:            t.Name,
		DurationMinutes: t.DurationMinutes,
		BufferMinutes:   t.BufferMinutes,
		IsActive:        t.IsActive,
	}
}

func parseTimestamp(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, errors.New(field + " must be RFC3339")
	}
	return t, nil
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	httpx.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	return false
}

func badRequest(w http.ResponseWriter, msg string) {
	httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", msg)
}

// writeBookingError maps engine error kinds onto HTTP statuses.
func writeBookingError(w http.ResponseWriter, err error) {
	var be *booking.Error
	if !errors.As(err, &be) {
		httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	switch be.Kind {
	case booking.KindValidation:
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", be.Message)
	case booking.KindSlotUnavailable:
		httpx.WriteError(w, http.StatusConflict, be.Code, be.Message)
	case booking.KindInvalidTransition:
		code := be.Code
		if code == "" {
			code = "INVALID_TRANSITION"
		}
		httpx.WriteError(w, http.StatusConflict, code, be.Message)
	case booking.KindNotFound:
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "appointment not found")
	case booking.KindForbidden:
		httpx.WriteError(w, http.StatusForbidden, "FORBIDDEN", be.Message)
	default:
		if be.Retriable {
			w.Header().Set("Retry-After", "1")
		}
		httpx.WriteError(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "storage temporarily unavailable")
	}
}

package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/clinicslots/libs/httpx"
)

// Routes mounts the public and staff APIs on mux. tokenGuard wraps the public
// routes that accept a booking token; staffAuth wraps every staff route.
func Routes(mux *http.ServeMux, public *BookingHandler, staff *StaffHandler, tokenGuard, staffAuth httpx.Middleware) {
	guarded := func(h http.HandlerFunc) http.Handler { return tokenGuard(h) }
	authed := func(h http.HandlerFunc) http.Handler { return staffAuth(h) }

	mux.HandleFunc("/api/v1/public/slots", public.Slots)
	mux.HandleFunc("/api/v1/public/appointment-types", public.Types)
	mux.Handle("/api/v1/public/book", guarded(public.Create))
	mux.Handle("/api/v1/public/booking", guarded(public.View))
	mux.Handle("/api/v1/public/booking/confirm", guarded(public.Confirm))
	mux.Handle("/api/v1/public/booking/cancel", guarded(public.Cancel))

	mux.Handle("/api/v1/appointments", authed(staff.List))
	mux.Handle("/api/v1/appointments/confirm", authed(staff.Confirm))
	mux.Handle("/api/v1/appointments/cancel", authed(staff.Cancel))
	mux.Handle("/api/v1/appointments/reschedule", authed(staff.Reschedule))
	mux.Handle("/api/v1/appointments/complete", authed(staff.Complete))
	mux.Handle("/api/v1/appointments/no-show", authed(staff.NoShow))
	mux.Handle("/api/v1/availability/rules", authed(staff.Rules))
	mux.Handle("/api/v1/availability/rules/delete", authed(staff.DeleteRule))
	mux.Handle("/api/v1/appointment-types", authed(staff.Types))
}

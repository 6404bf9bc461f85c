package booking

import (
	"context"

	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/storage"
)

// TryClaim reserves appt.StartTime..EndTime for its provider inside tx. The
// overlap re-check runs in the same serializable transaction as the insert, and
// the ledger's uniqueness and exclusion constraints back it up across processes.
// Any conflict is reported as SLOT_TAKEN; callers should re-resolve slots
// rather than retry the same interval.
func TryClaim(ctx context.Context, tx storage.Tx, appt model.Appointment) error {
	existing, err := tx.ListActiveOverlapping(ctx, appt.ProviderID, appt.StartTime, appt.EndTime)
	if err != nil {
		return mapStorage(err, true)
	}
	for _, e := range existing {
		if e.ID != appt.ID {
			return slotTaken(nil)
		}
	}
	return mapStorage(tx.Insert(ctx, appt), true)
}

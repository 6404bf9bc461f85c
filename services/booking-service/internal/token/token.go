package token

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"io"

	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
)

const (
	entropyBytes = 32
	// Length is the encoded size of every token.
	Length = 43
)

// ErrNotFound is returned for malformed, unknown and mismatched tokens alike.
var ErrNotFound = errors.New("booking not found")

type Lookup interface {
	GetByToken(ctx context.Context, token string) (model.Appointment, error)
}

type Issuer struct {
	rand   io.Reader
	lookup Lookup
}

func NewIssuer(lookup Lookup) *Issuer {
	return &Issuer{rand: rand.Reader, lookup: lookup}
}

// Issue returns a fresh token. Tokens are opaque and never derived from the appointment.
func (i *Issuer) Issue() (string, error) {
	var b [entropyBytes]byte
	if _, err := io.ReadFull(i.rand, b[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

// Resolve finds the appointment the token was issued for. Lookup failures other
// than a miss are returned as-is so callers can tell outages from bad tokens.
func (i *Issuer) Resolve(ctx context.Context, tok string) (model.Appointment, error) {
	if !WellFormed(tok) {
		return model.Appointment{}, ErrNotFound
	}
	appt, err := i.lookup.GetByToken(ctx, tok)
	if err != nil {
		return model.Appointment{}, err
	}
	if !Equal(appt.BookingToken, tok) {
		return model.Appointment{}, ErrNotFound
	}
	return appt, nil
}

func Equal(stored, presented string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}

func WellFormed(tok string) bool {
	if len(tok) != Length {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(tok)
	return err == nil
}

package domain

import "errors"

// ErrNotFound is returned by repositories when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Hotel is one property known to the platform. PMSHotelID is the identifier
// the property's PMS uses for it; PMS names the vendor the adapter registry
// resolves ("mews", ...).
type Hotel struct {
	ID         int64
	PMS        string
	PMSHotelID string
	Name       string
}

// Stay is one guest's reservation at one hotel, uniquely identified by
// (HotelID, PMSReservationID, PMSGuestID). Stays are upserted on webhook
// receipt and by the nightly sync; they are never deleted here.
//
// Breakfast inclusion is deliberately absent: it is fetched on demand from
// the PMS, never persisted.
type Stay struct {
	ID               int64
	HotelID          int64
	PMSReservationID string
	PMSGuestID       string
	GuestID          *int64 // nil until a guest with a valid phone is linked
	CheckIn          string // YYYY-MM-DD
	CheckOut         string // YYYY-MM-DD
	Status           string
}

// Guest is a person, keyed by phone number.
type Guest struct {
	ID       int64
	Phone    string
	Name     string
	Language *string // ISO 639-1, when known
}

// BreakfastStatus is the tri-state answer to "does this stay include
// breakfast". Unknown means the PMS could not tell us, which is distinct
// from a definite no.
type BreakfastStatus int

const (
	BreakfastUnknown BreakfastStatus = iota
	BreakfastNo
	BreakfastYes
)

func (b BreakfastStatus) String() string {
	switch b {
	case BreakfastYes:
		return "yes"
	case BreakfastNo:
		return "no"
	default:
		return "unknown"
	}
}

// WebhookResult reports how many events of a webhook (or reservations of a
// sync run) were applied and how many failed. Failures are logged and
// recorded; they do not abort the remaining events.
type WebhookResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

package app

import (
	"context"
	"strings"
	"time"

	"pms_bridge/internal/domain"
)

// WebhookPayload is a cleaned PMS webhook: which hotel it concerns and the
// reservation events it carries.
type WebhookPayload struct {
	HotelID string
	Events  []WebhookEvent
}

type WebhookEvent struct {
	ReservationID string
}

// Adapter is the contract every PMS integration implements.
type Adapter interface {
	// Name is the vendor's display name ("Mews").
	Name() string

	// CleanWebhookPayload parses a raw webhook body into a usable payload.
	// Malformed JSON or a payload without HotelId/Events is an error.
	CleanWebhookPayload(raw string) (WebhookPayload, error)

	// HandleWebhook applies the payload's events: per event it fetches
	// reservation and guest details from the PMS and upserts the Stay and
	// Guest records. A failing event is logged and counted, not fatal; an
	// unknown hotel id returns domain.ErrNotFound.
	HandleWebhook(ctx context.Context, payload WebhookPayload) (domain.WebhookResult, error)

	// UpdateTomorrowsStays pulls the hotel's reservations checking in
	// tomorrow and upserts the corresponding Stays and Guests.
	UpdateTomorrowsStays(ctx context.Context, hotel domain.Hotel) (domain.WebhookResult, error)

	// StayHasBreakfast asks the PMS whether the stay includes breakfast.
	// Any failure degrades to BreakfastUnknown; it never errors.
	StayHasBreakfast(ctx context.Context, stay domain.Stay) domain.BreakfastStatus
}

// Deps is everything an adapter needs wired in.
type Deps struct {
	API          domain.ReservationClient
	Repo         domain.StayRepository
	Cache        domain.Cache // optional; breakfast lookups skip caching when nil
	BreakfastTTL time.Duration
}

// adapters maps a vendor name to its constructor. Registration is static on
// purpose: no scanning of types by naming convention.
var adapters = map[string]func(Deps) Adapter{
	"mews": func(d Deps) Adapter { return NewMews(d) },
}

// Get resolves a vendor name (case-insensitive) to a fresh adapter instance.
// The second return is false for vendors we don't integrate.
func Get(name string, d Deps) (Adapter, bool) {
	ctor, ok := adapters[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return ctor(d), true
}

// Vendors lists the registered vendor keys, for logging and validation.
func Vendors() []string {
	out := make([]string, 0, len(adapters))
	for k := range adapters {
		out = append(out, k)
	}
	return out
}

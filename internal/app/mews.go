package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"pms_bridge/internal/adapters/observability"
	"pms_bridge/internal/domain"
)

// Mews integrates the Mews PMS. It is stateless; all state lives behind the
// repository and the cache.
type Mews struct {
	api          domain.ReservationClient
	repo         domain.StayRepository
	cache        domain.Cache
	breakfastTTL time.Duration
}

func NewMews(d Deps) *Mews {
	ttl := d.BreakfastTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Mews{api: d.API, repo: d.Repo, cache: d.Cache, breakfastTTL: ttl}
}

func (m *Mews) Name() string { return "Mews" }

// CleanWebhookPayload decodes the Mews webhook body:
//
//	{"HotelId": ..., "Events": [{"Value": {"ReservationId": ...}}, ...]}
//
// Events without a reservation id are dropped silently; a body without
// HotelId or Events is rejected.
func (m *Mews) CleanWebhookPayload(raw string) (WebhookPayload, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return WebhookPayload{}, fmt.Errorf("decode webhook payload: %w", err)
	}

	hotelID := lookupStr(data, "HotelId")
	if hotelID == "" {
		hotelID = lookupStr(data, "hotel_id")
	}
	if hotelID == "" {
		return WebhookPayload{}, errors.New("webhook payload has no HotelId")
	}

	rawEvents, ok := lookupAny(data, "Events").([]any)
	if !ok {
		return WebhookPayload{}, errors.New("webhook payload has no Events")
	}

	p := WebhookPayload{HotelID: hotelID}
	for _, ev := range rawEvents {
		obj, ok := ev.(map[string]any)
		if !ok {
			continue
		}
		if resID := lookupStr(obj, "Value.ReservationId"); resID != "" {
			p.Events = append(p.Events, WebhookEvent{ReservationID: resID})
		}
	}
	return p, nil
}

func (m *Mews) HandleWebhook(ctx context.Context, payload WebhookPayload) (domain.WebhookResult, error) {
	hotel, err := m.repo.GetHotelByPMSID(ctx, payload.HotelID)
	if err != nil {
		return domain.WebhookResult{}, fmt.Errorf("hotel %q: %w", payload.HotelID, err)
	}

	var res domain.WebhookResult
	for _, ev := range payload.Events {
		if err := m.syncReservation(ctx, hotel, ev.ReservationID); err != nil {
			log.Error().Err(err).
				Str("pms", m.Name()).
				Int64("hotel_id", hotel.ID).
				Str("reservation", ev.ReservationID).
				Msg("webhook event failed")
			_ = m.repo.LogSyncFailure(ctx, hotel.ID, ev.ReservationID, err.Error())
			observability.ObserveWebhook(m.Name(), "failed")
			res.Failed++
			continue
		}
		observability.ObserveWebhook(m.Name(), "processed")
		res.Processed++
	}
	return res, nil
}

func (m *Mews) UpdateTomorrowsStays(ctx context.Context, hotel domain.Hotel) (domain.WebhookResult, error) {
	from := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	to := from.AddDate(0, 0, 1)

	list, err := m.api.GetReservationsBetween(ctx, hotel.PMSHotelID, from, to)
	if err != nil {
		return domain.WebhookResult{}, fmt.Errorf("reservations between %s and %s: %w",
			from.Format("2006-01-02"), to.Format("2006-01-02"), err)
	}

	var res domain.WebhookResult
	for _, raw := range list {
		r := mapReservation(raw)
		if r.ReservationID == "" {
			_ = m.repo.LogSyncFailure(ctx, hotel.ID, "", "reservation without id in range listing")
			res.Failed++
			continue
		}
		if err := m.syncReservation(ctx, hotel, r.ReservationID); err != nil {
			log.Error().Err(err).
				Str("pms", m.Name()).
				Int64("hotel_id", hotel.ID).
				Str("reservation", r.ReservationID).
				Msg("nightly sync failed for reservation")
			_ = m.repo.LogSyncFailure(ctx, hotel.ID, r.ReservationID, err.Error())
			res.Failed++
			continue
		}
		res.Processed++
	}
	return res, nil
}

func (m *Mews) StayHasBreakfast(ctx context.Context, stay domain.Stay) domain.BreakfastStatus {
	key := "breakfast:" + stay.PMSReservationID

	if m.cache != nil {
		var cached string
		if ok, _ := m.cache.Get(ctx, key, &cached); ok {
			return breakfastFromString(cached)
		}
	}

	details, err := m.api.GetReservationDetails(ctx, stay.PMSReservationID)
	if err != nil {
		log.Warn().Err(err).
			Str("pms", m.Name()).
			Str("reservation", stay.PMSReservationID).
			Msg("breakfast lookup failed")
		return domain.BreakfastUnknown
	}

	status := domain.BreakfastUnknown
	if b, ok := boolFlexible(details, "BreakfastIncluded", "breakfast_included"); ok {
		if b {
			status = domain.BreakfastYes
		} else {
			status = domain.BreakfastNo
		}
	}

	// Unknown is not cached: the next call should ask the PMS again.
	if status != domain.BreakfastUnknown && m.cache != nil {
		_ = m.cache.Set(ctx, key, status.String(), int(m.breakfastTTL.Seconds()))
	}
	return status
}

// syncReservation is the shared upsert path for webhooks and the nightly
// sync: fetch reservation, fetch guest, upsert Guest (phone permitting),
// upsert Stay with the guest link reassigned.
func (m *Mews) syncReservation(ctx context.Context, hotel domain.Hotel, reservationID string) error {
	details, err := m.api.GetReservationDetails(ctx, reservationID)
	if err != nil {
		return fmt.Errorf("reservation details: %w", err)
	}
	r := mapReservation(details)
	if r.GuestID == "" {
		return fmt.Errorf("reservation %s carries no guest id", reservationID)
	}

	guestRaw, err := m.api.GetGuestDetails(ctx, r.GuestID)
	if err != nil {
		return fmt.Errorf("guest details: %w", err)
	}
	guest := mapGuest(guestRaw)

	var guestRef *int64
	switch {
	case guest.Phone == "":
		log.Warn().Str("pms", m.Name()).Str("guest", r.GuestID).
			Msg("guest has no phone, stay kept unlinked")
	case !ValidatePhoneNumber(guest.Phone):
		log.Warn().Str("pms", m.Name()).Str("guest", r.GuestID).
			Msg("guest phone invalid, stay kept unlinked")
	default:
		id, err := m.repo.UpsertGuest(ctx, guest)
		if err != nil {
			return fmt.Errorf("upsert guest: %w", err)
		}
		guestRef = &id
	}

	stay := domain.Stay{
		HotelID:          hotel.ID,
		PMSReservationID: reservationID,
		PMSGuestID:       r.GuestID,
		GuestID:          guestRef,
		CheckIn:          r.CheckIn,
		CheckOut:         r.CheckOut,
		Status:           r.Status,
	}
	if _, err := m.repo.UpsertStay(ctx, stay); err != nil {
		return fmt.Errorf("upsert stay: %w", err)
	}
	return nil
}

func breakfastFromString(s string) domain.BreakfastStatus {
	switch s {
	case "yes":
		return domain.BreakfastYes
	case "no":
		return domain.BreakfastNo
	default:
		return domain.BreakfastUnknown
	}
}

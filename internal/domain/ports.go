package domain

import (
	"context"
	"time"
)

type StayRepository interface {
	// Write paths
	UpsertHotel(ctx context.Context, h Hotel) (int64, error)
	UpsertStay(ctx context.Context, s Stay) (int64, error)
	UpsertGuest(ctx context.Context, g Guest) (int64, error)
	LogSyncFailure(ctx context.Context, hotelID int64, pmsReservationID, reason string) error

	// Read paths
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	GetHotelByPMSID(ctx context.Context, pmsHotelID string) (Hotel, error)
	ListHotels(ctx context.Context) ([]Hotel, error)
	GetStay(ctx context.Context, id int64) (Stay, error)
}

// ReservationClient is the outbound face of a PMS vendor's reservation API.
// Payloads come back as loosely typed maps; the app layer normalizes them.
type ReservationClient interface {
	GetReservationDetails(ctx context.Context, reservationID string) (map[string]any, error)
	GetGuestDetails(ctx context.Context, guestID string) (map[string]any, error)
	GetReservationsBetween(ctx context.Context, pmsHotelID string, from, to time.Time) ([]map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

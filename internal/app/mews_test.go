package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"pms_bridge/internal/app"
	"pms_bridge/internal/domain"
)

// ---- fakes ----

type fakeAPI struct {
	reservations map[string]map[string]any
	guests       map[string]map[string]any
	between      []map[string]any

	reservationErr error
	detailCalls    int
}

func (f *fakeAPI) GetReservationDetails(ctx context.Context, id string) (map[string]any, error) {
	f.detailCalls++
	if f.reservationErr != nil {
		return nil, f.reservationErr
	}
	r, ok := f.reservations[id]
	if !ok {
		return nil, errors.New("reservation missing")
	}
	return r, nil
}

func (f *fakeAPI) GetGuestDetails(ctx context.Context, id string) (map[string]any, error) {
	g, ok := f.guests[id]
	if !ok {
		return nil, errors.New("guest missing")
	}
	return g, nil
}

func (f *fakeAPI) GetReservationsBetween(ctx context.Context, pmsHotelID string, from, to time.Time) ([]map[string]any, error) {
	return f.between, nil
}

type fakeRepo struct {
	hotels   map[string]domain.Hotel  // keyed by pms hotel id
	stays    map[string]domain.Stay   // keyed by hotelID|resID|guestID
	guests   map[string]domain.Guest  // keyed by phone
	failures []string
	nextID   int64
}

func newFakeRepo(hotels ...domain.Hotel) *fakeRepo {
	r := &fakeRepo{
		hotels: map[string]domain.Hotel{},
		stays:  map[string]domain.Stay{},
		guests: map[string]domain.Guest{},
	}
	for _, h := range hotels {
		r.hotels[h.PMSHotelID] = h
	}
	return r
}

func stayKey(s domain.Stay) string {
	return fmt.Sprintf("%d|%s|%s", s.HotelID, s.PMSReservationID, s.PMSGuestID)
}

func (f *fakeRepo) UpsertHotel(ctx context.Context, h domain.Hotel) (int64, error) {
	f.hotels[h.PMSHotelID] = h
	return h.ID, nil
}

func (f *fakeRepo) UpsertStay(ctx context.Context, s domain.Stay) (int64, error) {
	k := stayKey(s)
	if old, ok := f.stays[k]; ok {
		s.ID = old.ID
	} else {
		f.nextID++
		s.ID = f.nextID
	}
	f.stays[k] = s
	return s.ID, nil
}

func (f *fakeRepo) UpsertGuest(ctx context.Context, g domain.Guest) (int64, error) {
	if old, ok := f.guests[g.Phone]; ok {
		g.ID = old.ID
	} else {
		f.nextID++
		g.ID = f.nextID
	}
	f.guests[g.Phone] = g
	return g.ID, nil
}

func (f *fakeRepo) LogSyncFailure(ctx context.Context, hotelID int64, pmsReservationID, reason string) error {
	f.failures = append(f.failures, pmsReservationID+": "+reason)
	return nil
}

func (f *fakeRepo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	for _, h := range f.hotels {
		if h.ID == id {
			return h, nil
		}
	}
	return domain.Hotel{}, domain.ErrNotFound
}

func (f *fakeRepo) GetHotelByPMSID(ctx context.Context, pmsHotelID string) (domain.Hotel, error) {
	h, ok := f.hotels[pmsHotelID]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, nil
}

func (f *fakeRepo) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	var out []domain.Hotel
	for _, h := range f.hotels {
		out = append(out, h)
	}
	return out, nil
}

func (f *fakeRepo) GetStay(ctx context.Context, id int64) (domain.Stay, error) {
	for _, s := range f.stays {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Stay{}, domain.ErrNotFound
}

type fakeCache struct{ store map[string]any }

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	if d, ok := dst.(*string); ok {
		*d = v.(string)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error { return nil }

// ---- helpers ----

const webhookBody = `{"HotelId": "pms-h1", "Events": [{"Value": {"ReservationId": "res-1"}}]}`

func mewsFixture() (*app.Mews, *fakeAPI, *fakeRepo) {
	api := &fakeAPI{
		reservations: map[string]map[string]any{
			"res-1": {
				"ReservationId":     "res-1",
				"GuestId":           "g-1",
				"CheckInDate":       "2026-09-01",
				"CheckOutDate":      "2026-09-04",
				"Status":            "confirmed",
				"BreakfastIncluded": true,
			},
		},
		guests: map[string]map[string]any{
			"g-1": {"Phone": "+14155552671", "Name": "Ana Martin", "Country": "US"},
		},
	}
	repo := newFakeRepo(domain.Hotel{ID: 7, PMS: "mews", PMSHotelID: "pms-h1", Name: "Test Hotel"})
	m := app.NewMews(app.Deps{API: api, Repo: repo, BreakfastTTL: time.Minute})
	return m, api, repo
}

// ---- tests ----

func TestCleanWebhookPayload(t *testing.T) {
	m, _, _ := mewsFixture()

	p, err := m.CleanWebhookPayload(webhookBody)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p.HotelID != "pms-h1" || len(p.Events) != 1 || p.Events[0].ReservationID != "res-1" {
		t.Fatalf("unexpected payload: %+v", p)
	}

	if _, err := m.CleanWebhookPayload(`{not json`); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
	if _, err := m.CleanWebhookPayload(`{"Events": []}`); err == nil {
		t.Fatalf("expected error for missing HotelId")
	}
	if _, err := m.CleanWebhookPayload(`{"HotelId": "x"}`); err == nil {
		t.Fatalf("expected error for missing Events")
	}
}

func TestHandleWebhook_CreatesStayAndGuest(t *testing.T) {
	m, _, repo := mewsFixture()

	p, err := m.CleanWebhookPayload(webhookBody)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	res, err := m.HandleWebhook(context.Background(), p)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Processed != 1 || res.Failed != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	stay, ok := repo.stays["7|res-1|g-1"]
	if !ok {
		t.Fatalf("stay not upserted: %+v", repo.stays)
	}
	if stay.CheckIn != "2026-09-01" || stay.CheckOut != "2026-09-04" || stay.Status != "confirmed" {
		t.Fatalf("unexpected stay: %+v", stay)
	}

	guest, ok := repo.guests["+14155552671"]
	if !ok {
		t.Fatalf("guest not upserted: %+v", repo.guests)
	}
	if guest.Name != "Ana Martin" {
		t.Fatalf("unexpected guest: %+v", guest)
	}
	if stay.GuestID == nil || *stay.GuestID != guest.ID {
		t.Fatalf("stay not linked to guest: stay=%+v guest=%+v", stay, guest)
	}
	if guest.Language == nil || *guest.Language != "en" {
		t.Fatalf("expected language derived from country, got %+v", guest.Language)
	}
}

func TestHandleWebhook_Idempotent(t *testing.T) {
	m, _, repo := mewsFixture()
	p, _ := m.CleanWebhookPayload(webhookBody)

	for i := 0; i < 2; i++ {
		if _, err := m.HandleWebhook(context.Background(), p); err != nil {
			t.Fatalf("handle #%d: %v", i+1, err)
		}
	}
	if len(repo.stays) != 1 {
		t.Fatalf("expected 1 stay, got %d", len(repo.stays))
	}
	if len(repo.guests) != 1 {
		t.Fatalf("expected 1 guest, got %d", len(repo.guests))
	}
}

func TestHandleWebhook_UnknownHotel(t *testing.T) {
	m, _, _ := mewsFixture()

	_, err := m.HandleWebhook(context.Background(), app.WebhookPayload{
		HotelID: "nope",
		Events:  []app.WebhookEvent{{ReservationID: "res-1"}},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHandleWebhook_APIFailureCountedNotFatal(t *testing.T) {
	m, api, repo := mewsFixture()
	api.reservationErr = errors.New("remote 500")

	p, _ := m.CleanWebhookPayload(webhookBody)
	res, err := m.HandleWebhook(context.Background(), p)
	if err != nil {
		t.Fatalf("handle should not fail on event errors: %v", err)
	}
	if res.Processed != 0 || res.Failed != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(repo.failures) != 1 {
		t.Fatalf("expected one recorded failure, got %v", repo.failures)
	}
	if len(repo.stays) != 0 {
		t.Fatalf("no stay should be written on failure")
	}
}

func TestHandleWebhook_InvalidPhoneKeepsStayUnlinked(t *testing.T) {
	m, api, repo := mewsFixture()
	api.guests["g-1"] = map[string]any{"Phone": "abc", "Name": "No Phone"}

	p, _ := m.CleanWebhookPayload(webhookBody)
	res, err := m.HandleWebhook(context.Background(), p)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Processed != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(repo.guests) != 0 {
		t.Fatalf("guest with invalid phone must not be created: %+v", repo.guests)
	}
	stay := repo.stays["7|res-1|g-1"]
	if stay.GuestID != nil {
		t.Fatalf("stay should stay unlinked: %+v", stay)
	}
}

func TestUpdateTomorrowsStays(t *testing.T) {
	m, api, repo := mewsFixture()
	api.between = []map[string]any{
		{"ReservationId": "res-1"},
		{"Status": "confirmed"}, // no id, counted as failed
	}

	hotel, _ := repo.GetHotelByPMSID(context.Background(), "pms-h1")
	res, err := m.UpdateTomorrowsStays(context.Background(), hotel)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Processed != 1 || res.Failed != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(repo.stays) != 1 {
		t.Fatalf("expected 1 stay after sync, got %d", len(repo.stays))
	}
}

func TestStayHasBreakfast(t *testing.T) {
	m, api, _ := mewsFixture()
	stay := domain.Stay{PMSReservationID: "res-1"}

	if got := m.StayHasBreakfast(context.Background(), stay); got != domain.BreakfastYes {
		t.Fatalf("expected yes, got %v", got)
	}

	api.reservations["res-1"]["BreakfastIncluded"] = false
	if got := m.StayHasBreakfast(context.Background(), stay); got != domain.BreakfastNo {
		t.Fatalf("expected no, got %v", got)
	}

	api.reservationErr = errors.New("remote 500")
	if got := m.StayHasBreakfast(context.Background(), stay); got != domain.BreakfastUnknown {
		t.Fatalf("expected unknown on API failure, got %v", got)
	}
}

func TestStayHasBreakfast_CacheSkipsAPI(t *testing.T) {
	api := &fakeAPI{}
	cache := &fakeCache{store: map[string]any{"breakfast:res-9": "yes"}}
	m := app.NewMews(app.Deps{API: api, Repo: newFakeRepo(), Cache: cache, BreakfastTTL: time.Minute})

	got := m.StayHasBreakfast(context.Background(), domain.Stay{PMSReservationID: "res-9"})
	if got != domain.BreakfastYes {
		t.Fatalf("expected cached yes, got %v", got)
	}
	if api.detailCalls != 0 {
		t.Fatalf("cache hit must not call the API, calls=%d", api.detailCalls)
	}
}

package mysql

import (
	"context"
	"database/sql"

	"pms_bridge/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

// dateOrNil keeps empty dates out of DATE columns.
func dateOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertHotel(ctx context.Context, h domain.Hotel) (int64, error) {
	res, err := r.db.ExecContext(ctx, upsertHotelSQL, h.PMS, h.PMSHotelID, h.Name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) UpsertGuest(ctx context.Context, g domain.Guest) (int64, error) {
	res, err := r.db.ExecContext(ctx, upsertGuestSQL, g.Phone, g.Name, valStr(g.Language))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) UpsertStay(ctx context.Context, s domain.Stay) (int64, error) {
	res, err := r.db.ExecContext(ctx, upsertStaySQL,
		s.HotelID,
		s.PMSReservationID,
		s.PMSGuestID,
		valInt64(s.GuestID),
		dateOrNil(s.CheckIn),
		dateOrNil(s.CheckOut),
		s.Status,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) LogSyncFailure(ctx context.Context, hotelID int64, pmsReservationID, reason string) error {
	if len(reason) > 512 {
		reason = reason[:512]
	}
	_, err := r.db.ExecContext(ctx, insertSyncFailureSQL, hotelID, pmsReservationID, reason)
	return err
}

func (r *Repo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	return r.scanHotel(r.db.QueryRowContext(ctx, getHotelSQL, id))
}

func (r *Repo) GetHotelByPMSID(ctx context.Context, pmsHotelID string) (domain.Hotel, error) {
	return r.scanHotel(r.db.QueryRowContext(ctx, getHotelByPMSIDSQL, pmsHotelID))
}

func (r *Repo) scanHotel(row *sql.Row) (domain.Hotel, error) {
	var h domain.Hotel
	if err := row.Scan(&h.ID, &h.PMS, &h.PMSHotelID, &h.Name); err != nil {
		if err == sql.ErrNoRows {
			return domain.Hotel{}, domain.ErrNotFound
		}
		return domain.Hotel{}, err
	}
	return h, nil
}

func (r *Repo) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	rows, err := r.db.QueryContext(ctx, listHotelsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Hotel
	for rows.Next() {
		var h domain.Hotel
		if err := rows.Scan(&h.ID, &h.PMS, &h.PMSHotelID, &h.Name); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *Repo) GetStay(ctx context.Context, id int64) (domain.Stay, error) {
	row := r.db.QueryRowContext(ctx, getStaySQL, id)

	var s domain.Stay
	var guestID sql.NullInt64
	var checkin, checkout sql.NullTime
	var status sql.NullString

	if err := row.Scan(
		&s.ID,
		&s.HotelID,
		&s.PMSReservationID,
		&s.PMSGuestID,
		&guestID,
		&checkin,
		&checkout,
		&status,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Stay{}, domain.ErrNotFound
		}
		return domain.Stay{}, err
	}

	if guestID.Valid {
		g := guestID.Int64
		s.GuestID = &g
	}
	if checkin.Valid {
		s.CheckIn = checkin.Time.Format("2006-01-02")
	}
	if checkout.Valid {
		s.CheckOut = checkout.Time.Format("2006-01-02")
	}
	if status.Valid {
		s.Status = status.String
	}
	return s, nil
}

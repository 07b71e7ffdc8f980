package mysql

// The LAST_INSERT_ID(id) trick makes every upsert return the row's id via
// Result.LastInsertId, whether the row was inserted or updated.

const upsertHotelSQL = `
INSERT INTO hotels
  (pms, pms_hotel_id, name)
VALUES
  (?, ?, ?)
ON DUPLICATE KEY UPDATE
  pms        = VALUES(pms),
  name       = VALUES(name),
  updated_at = CURRENT_TIMESTAMP,
  id         = LAST_INSERT_ID(id)
`

const upsertGuestSQL = `
INSERT INTO guests
  (phone, name, language)
VALUES
  (?, ?, ?)
ON DUPLICATE KEY UPDATE
  name       = VALUES(name),
  language   = COALESCE(VALUES(language), guests.language),
  updated_at = CURRENT_TIMESTAMP,
  id         = LAST_INSERT_ID(id)
`

const upsertStaySQL = `
INSERT INTO stays
  (hotel_id, pms_reservation_id, pms_guest_id, guest_id, checkin, checkout, status)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  guest_id   = VALUES(guest_id),
  checkin    = VALUES(checkin),
  checkout   = VALUES(checkout),
  status     = VALUES(status),
  updated_at = CURRENT_TIMESTAMP,
  id         = LAST_INSERT_ID(id)
`

const insertSyncFailureSQL = `
INSERT INTO sync_failures (hotel_id, pms_reservation_id, reason)
VALUES (?, ?, ?)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getHotelSQL = `
SELECT id, pms, pms_hotel_id, name
FROM hotels
WHERE id = ?
`

const getHotelByPMSIDSQL = `
SELECT id, pms, pms_hotel_id, name
FROM hotels
WHERE pms_hotel_id = ?
`

const listHotelsSQL = `
SELECT id, pms, pms_hotel_id, name
FROM hotels
ORDER BY id
`

const getStaySQL = `
SELECT id, hotel_id, pms_reservation_id, pms_guest_id, guest_id, checkin, checkout, status
FROM stays
WHERE id = ?
`

package mysql

const upsertRoomSQL = `
INSERT INTO rooms
  (hotel_id, id, room_number, type, capacity, price, available, description)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  room_number = VALUES(room_number),
  type        = VALUES(type),
  capacity    = VALUES(capacity),
  price       = VALUES(price),
  available   = VALUES(available),
  description = VALUES(description),
  updated_at  = CURRENT_TIMESTAMP
`

const insertMissSQL = `
INSERT INTO sync_misses (hotel_id, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  http_status = VALUES(http_status),
  reason      = VALUES(reason),
  seen_at     = CURRENT_TIMESTAMP
`

const roomCols = `hotel_id, id, room_number, type, capacity, price, available, description`

const getRoomSQL = `SELECT ` + roomCols + ` FROM rooms WHERE hotel_id = ? AND id = ?`

const listRoomsSQL = `SELECT ` + roomCols + ` FROM rooms WHERE hotel_id = ? ORDER BY id`

// -----------------------------------------------------------------------------
// RESERVATIONS
// -----------------------------------------------------------------------------

// Serializes concurrent bookings of one room for the rest of the transaction.
const lockRoomSQL = `SELECT available FROM rooms WHERE hotel_id = ? AND id = ? FOR UPDATE`

// Half-open overlap: existing.check_in < new.check_out AND existing.check_out > new.check_in.
const countOverlapSQL = `
SELECT COUNT(*)
FROM reservations
WHERE hotel_id = ? AND room_id = ?
  AND status IN ('PENDING', 'CONFIRMED')
  AND check_in < ? AND check_out > ?
`

const reservationCols = `id, hotel_id, room_id, user_id, check_in, check_out, status, total_price,
  first_name, last_name, email, phone, special_requests, payment_id, created_at, updated_at`

const insertReservationSQL = `INSERT INTO reservations (` + reservationCols + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Compare-and-set on the prior status.
const updateStatusSQL = `
UPDATE reservations
SET status = ?, payment_id = ?, updated_at = ?
WHERE id = ? AND status = ?
`

const statusSQL = `SELECT status FROM reservations WHERE id = ?`

const getReservationSQL = `SELECT ` + reservationCols + ` FROM reservations WHERE id = ?`

const listActiveByRoomSQL = `SELECT ` + reservationCols + `
FROM reservations
WHERE hotel_id = ? AND room_id = ? AND status IN ('PENDING', 'CONFIRMED')
ORDER BY check_in`

const listActiveByHotelSQL = `SELECT ` + reservationCols + `
FROM reservations
WHERE hotel_id = ? AND status IN ('PENDING', 'CONFIRMED')
ORDER BY check_in`

const listActiveByHotelWithinSQL = `SELECT ` + reservationCols + `
FROM reservations
WHERE hotel_id = ? AND status IN ('PENDING', 'CONFIRMED')
  AND check_in < ? AND check_out > ?
ORDER BY check_in`

const listByUserSQL = `SELECT ` + reservationCols + `
FROM reservations
WHERE user_id = ?
ORDER BY created_at DESC`

const listRecentSQL = `SELECT ` + reservationCols + `
FROM reservations
ORDER BY created_at DESC
LIMIT ?`

const listDueSQL = `SELECT ` + reservationCols + `
FROM reservations
WHERE (status = 'CONFIRMED' AND check_out <= ?)
   OR (status = 'PENDING' AND created_at < ?)
ORDER BY check_in`

package mysql

const kosColumns = `
  id, owner_user_id, name, address, description, num_rooms,
  monthly_rent_price, is_listed, occupied_rooms, created_at, updated_at`

// created_at and owner_user_id are write-once: the update branch never touches them.
const upsertKosSQL = `
INSERT INTO kos
  (id, owner_user_id, name, address, description, num_rooms,
   monthly_rent_price, is_listed, occupied_rooms, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name               = VALUES(name),
  address            = VALUES(address),
  description        = VALUES(description),
  num_rooms          = VALUES(num_rooms),
  monthly_rent_price = VALUES(monthly_rent_price),
  is_listed          = VALUES(is_listed),
  updated_at         = VALUES(updated_at)
`

const deleteKosSQL = `DELETE FROM kos WHERE id = ?`

// Single statement so concurrent events never lose an increment.
const addOccupiedRoomsSQL = `
UPDATE kos
SET occupied_rooms = GREATEST(occupied_rooms + ?, 0),
    updated_at     = ?
WHERE id = ?
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getKosSQL = `SELECT` + kosColumns + `
FROM kos
WHERE id = ?
`

const listKosByOwnerSQL = `SELECT` + kosColumns + `
FROM kos
WHERE owner_user_id = ?
ORDER BY created_at DESC, id
`

const listKosSQL = `SELECT` + kosColumns + `
FROM kos
ORDER BY created_at DESC, id
`

// The same escaped pattern is bound three times; LOWER keeps the match
// case-insensitive regardless of the column collation.
const searchKosSQL = `SELECT` + kosColumns + `
FROM kos
WHERE LOWER(name) LIKE ? ESCAPE '!'
   OR LOWER(address) LIKE ? ESCAPE '!'
   OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '!'
ORDER BY created_at DESC, id
`

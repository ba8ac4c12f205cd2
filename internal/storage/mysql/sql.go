package mysql

// kv_records is created by migrations/001_kv_records.sql.

const getSQL = `SELECT v FROM kv_records WHERE k = ?`

// VALUES(col) for broad compatibility across 5.7 and 8.0.
const setSQL = `
INSERT INTO kv_records (k, v)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE
  v          = VALUES(v),
  updated_at = CURRENT_TIMESTAMP
`

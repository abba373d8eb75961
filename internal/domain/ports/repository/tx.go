package repository

// Tx is a backend-specific transaction handle (pgx.Tx for Postgres).
// Repositories accept a nil Tx and fall back to their own pool.
type Tx interface{}

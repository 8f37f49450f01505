package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SaveSuppression persists the cancellation suppression flag with its expiry
// so a restart inside the window keeps refresh disabled.
func (s *DB) SaveSuppression(customerID uuid.UUID, expiresAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO cancel_suppression (customer_id, expires_at) VALUES (?, ?)`,
		customerID.String(), expiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving suppression flag: %w", err)
	}
	return nil
}

// LoadSuppression returns the flag's expiry and whether a flag is stored.
func (s *DB) LoadSuppression(customerID uuid.UUID) (time.Time, bool, error) {
	var unix int64
	err := s.db.QueryRow(
		`SELECT expires_at FROM cancel_suppression WHERE customer_id = ?`,
		customerID.String(),
	).Scan(&unix)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("loading suppression flag: %w", err)
	}
	return time.Unix(unix, 0), true, nil
}

// ClearSuppression removes the flag. Clearing an absent flag is not an error.
func (s *DB) ClearSuppression(customerID uuid.UUID) error {
	_, err := s.db.Exec(
		`DELETE FROM cancel_suppression WHERE customer_id = ?`,
		customerID.String(),
	)
	if err != nil {
		return fmt.Errorf("clearing suppression flag: %w", err)
	}
	return nil
}

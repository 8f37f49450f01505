package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// SaveDraft stores the draft for its template slot, fully overwriting any
// previous value. There are no partial merges.
func (s *DB) SaveDraft(draft *models.LocalSessionDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO session_drafts (customer_id, template_id, draft_json, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)`,
		draft.CustomerID.String(), draft.TemplateID.String(), string(data),
	)
	if err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

// LoadDraft returns the stored draft for the template, or nil if none exists.
// A corrupt stored draft is treated as absent, never as a hard failure: the
// row is dropped and a warning logged so session start can proceed from
// nothing.
func (s *DB) LoadDraft(customerID, templateID uuid.UUID) (*models.LocalSessionDraft, error) {
	var raw string
	err := s.db.QueryRow(
		`SELECT draft_json FROM session_drafts WHERE customer_id = ? AND template_id = ?`,
		customerID.String(), templateID.String(),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading draft: %w", err)
	}
	return s.decodeDraft(customerID, templateID, raw), nil
}

// LoadCurrent returns the customer's single in-progress draft regardless of
// template, or nil. The single-draft invariant makes "the current one" well
// defined; if stale rows ever left more than one, the most recently written
// wins.
func (s *DB) LoadCurrent(customerID uuid.UUID) (*models.LocalSessionDraft, error) {
	var templateIDStr, raw string
	err := s.db.QueryRow(
		`SELECT template_id, draft_json FROM session_drafts
		 WHERE customer_id = ? ORDER BY updated_at DESC LIMIT 1`,
		customerID.String(),
	).Scan(&templateIDStr, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading current draft: %w", err)
	}
	templateID, err := uuid.Parse(templateIDStr)
	if err != nil {
		templateID = uuid.Nil
	}
	return s.decodeDraft(customerID, templateID, raw), nil
}

// ClearDraft removes the draft slot for the template. Clearing an absent
// slot is not an error.
func (s *DB) ClearDraft(customerID, templateID uuid.UUID) error {
	_, err := s.db.Exec(
		`DELETE FROM session_drafts WHERE customer_id = ? AND template_id = ?`,
		customerID.String(), templateID.String(),
	)
	if err != nil {
		return fmt.Errorf("clearing draft: %w", err)
	}
	return nil
}

func (s *DB) decodeDraft(customerID, templateID uuid.UUID, raw string) *models.LocalSessionDraft {
	var draft models.LocalSessionDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		s.log.Warn("discarding corrupt session draft",
			"customer_id", customerID,
			"template_id", templateID,
			"error", err)
		if _, derr := s.db.Exec(
			`DELETE FROM session_drafts WHERE customer_id = ? AND template_id = ?`,
			customerID.String(), templateID.String(),
		); derr != nil {
			s.log.Warn("failed to drop corrupt draft row", "error", derr)
		}
		return nil
	}
	return &draft
}

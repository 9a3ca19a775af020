package sqlite

import (
	"fmt"
	"time"

	"github.com/julianstephens/perfassist/internal/models"
)

func (s *Store) ReplaceEntries(userID, from, to string, entries []models.Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries WHERE user_id = ? AND date >= ? AND date <= ?", userID, from, to); err != nil {
		return fmt.Errorf("failed to clear cached entries: %w", err)
	}

	stmt, err := tx.Prepare(upsertEntrySQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	syncedAt := time.Now().UTC().Format(time.RFC3339)
	for _, e := range entries {
		if e.ID == "" || e.UserID != userID || e.Date < from || e.Date > to {
			continue
		}
		if _, err := stmt.Exec(e.ID, e.UserID, e.Date, string(e.Kind), e.Text, e.CreatedAt, syncedAt); err != nil {
			return fmt.Errorf("failed to cache entry %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// upsertEntrySQL replaces any row sharing the id or the (user, date, type)
// slot, so a re-created entry displaces its predecessor.
const upsertEntrySQL = `
	INSERT OR REPLACE INTO entries (id, user_id, date, type, raw_text, created_at, synced_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

func (s *Store) GetEntries(userID, from, to string) ([]models.Entry, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, date, type, raw_text, created_at FROM entries WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date, type DESC",
		userID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		var e models.Entry
		var kind string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &kind, &e.Text, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = models.Kind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) UpsertEntry(e models.Entry) error {
	if e.ID == "" {
		return fmt.Errorf("cannot cache an entry without id")
	}
	_, err := s.db.Exec(upsertEntrySQL, e.ID, e.UserID, e.Date, string(e.Kind), e.Text, e.CreatedAt, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) DeleteDay(userID, date string) error {
	_, err := s.db.Exec("DELETE FROM entries WHERE user_id = ? AND date = ?", userID, date)
	return err
}

package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/perfassist/internal/models"
)

// ErrNoSummary is returned when no summary has been cached for the user
var ErrNoSummary = errors.New("no summary generated yet")

func (s *Store) SaveSummary(req models.SummaryRequest, summary models.Summary) (models.SummaryRecord, error) {
	payload, err := json.Marshal(summary)
	if err != nil {
		return models.SummaryRecord{}, fmt.Errorf("encode summary: %w", err)
	}
	createdAt := time.Now().UTC().Format(time.RFC3339)

	res, err := s.db.Exec(
		"INSERT INTO summaries (user_id, period, start_date, end_date, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		req.UserID, req.Period, req.StartDate, req.EndDate, string(payload), createdAt,
	)
	if err != nil {
		return models.SummaryRecord{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.SummaryRecord{}, err
	}
	return models.SummaryRecord{ID: id, Request: req, Summary: summary, CreatedAt: createdAt}, nil
}

func (s *Store) LatestSummary(userID string) (models.SummaryRecord, error) {
	var rec models.SummaryRecord
	var payload string
	err := s.db.QueryRow(
		"SELECT id, user_id, period, start_date, end_date, payload, created_at FROM summaries WHERE user_id = ? ORDER BY id DESC LIMIT 1",
		userID,
	).Scan(&rec.ID, &rec.Request.UserID, &rec.Request.Period, &rec.Request.StartDate, &rec.Request.EndDate, &payload, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SummaryRecord{}, ErrNoSummary
	}
	if err != nil {
		return models.SummaryRecord{}, err
	}
	if err := json.Unmarshal([]byte(payload), &rec.Summary); err != nil {
		return models.SummaryRecord{}, fmt.Errorf("decode cached summary: %w", err)
	}
	return rec, nil
}

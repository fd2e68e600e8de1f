package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hrygo/adspilot/store"
)

type pgFeedbackStore struct {
	db *sql.DB
}

func (s *pgFeedbackStore) CreateFeedback(ctx context.Context, create *store.CreateFeedback) (*store.Feedback, error) {
	if create.Rating < 1 || create.Rating > 10 {
		return nil, errors.Errorf("rating must be between 1 and 10, got %d", create.Rating)
	}
	feedback := &store.Feedback{
		ID:           uuid.NewString(),
		SessionID:    create.SessionID,
		MessageIndex: create.MessageIndex,
		Rating:       create.Rating,
		Comment:      create.Comment,
		Evaluator:    create.Evaluator,
		Status:       store.FeedbackStatusPending,
		CreatedTs:    time.Now().Unix(),
	}
	if feedback.Evaluator == "" {
		feedback.Evaluator = "anonymous"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (id, session_id, message_index, rating, comment, evaluator, status, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		feedback.ID, feedback.SessionID, feedback.MessageIndex, feedback.Rating,
		feedback.Comment, feedback.Evaluator, feedback.Status, feedback.CreatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create feedback")
	}
	return feedback, nil
}

func (s *pgFeedbackStore) ListFeedback(ctx context.Context, find *store.FindFeedback) ([]*store.Feedback, error) {
	where, args := []string{"TRUE"}, []any{}
	if find.SessionID != nil {
		args = append(args, *find.SessionID)
		where = append(where, fmt.Sprintf("session_id = $%d", len(args)))
	}
	if find.Status != nil {
		args = append(args, *find.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if find.MinRating != nil {
		args = append(args, *find.MinRating)
		where = append(where, fmt.Sprintf("rating >= $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT id, session_id, message_index, rating, comment, evaluator, status, created_ts
		FROM feedback WHERE %s ORDER BY created_ts DESC`, strings.Join(where, " AND "))
	if find.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", find.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list feedback")
	}
	defer rows.Close()

	list := []*store.Feedback{}
	for rows.Next() {
		f := &store.Feedback{}
		if err := rows.Scan(&f.ID, &f.SessionID, &f.MessageIndex, &f.Rating,
			&f.Comment, &f.Evaluator, &f.Status, &f.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan feedback")
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

func (s *pgFeedbackStore) GetFeedback(ctx context.Context, id string) (*store.Feedback, error) {
	f := &store.Feedback{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, message_index, rating, comment, evaluator, status, created_ts
		FROM feedback WHERE id = $1`, id,
	).Scan(&f.ID, &f.SessionID, &f.MessageIndex, &f.Rating,
		&f.Comment, &f.Evaluator, &f.Status, &f.CreatedTs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get feedback")
	}
	return f, nil
}

func (s *pgFeedbackStore) UpdateFeedback(ctx context.Context, update *store.UpdateFeedback) (*store.Feedback, error) {
	set, args := []string{}, []any{}
	if update.Status != nil {
		if !store.ValidFeedbackStatus(*update.Status) {
			return nil, errors.Errorf("invalid feedback status %q", *update.Status)
		}
		args = append(args, *update.Status)
		set = append(set, fmt.Sprintf("status = $%d", len(args)))
	}
	if update.Comment != nil {
		args = append(args, *update.Comment)
		set = append(set, fmt.Sprintf("comment = $%d", len(args)))
	}
	if len(set) == 0 {
		return s.GetFeedback(ctx, update.ID)
	}
	args = append(args, update.ID)

	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE feedback SET %s WHERE id = $%d", strings.Join(set, ", "), len(args)), args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update feedback")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, "failed to check update result")
	}
	if affected == 0 {
		return nil, nil
	}
	return s.GetFeedback(ctx, update.ID)
}

func (s *pgFeedbackStore) DeleteFeedback(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM feedback WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "failed to delete feedback")
	}
	return nil
}

func (s *pgFeedbackStore) FeedbackStats(ctx context.Context) (*store.FeedbackStats, error) {
	stats := &store.FeedbackStats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(AVG(rating), 0),
			COALESCE(SUM(CASE WHEN rating >= 9 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN rating BETWEEN 7 AND 8 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN rating <= 6 THEN 1 ELSE 0 END), 0)
		FROM feedback`,
	).Scan(&stats.Total, &stats.AvgRating, &stats.Promoters, &stats.Passives, &stats.Detractors)
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate feedback stats")
	}
	stats.ComputeNPS()
	return stats, nil
}

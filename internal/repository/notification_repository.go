package repository

import (
	"context"
	"database/sql"
	"time"
)

// Notification kinds recorded for moderation decisions.
const (
	KindApproval  = "approval"
	KindRejection = "rejection"
)

// Notification is one entry in a user's notification list. Entries are
// created only as a side effect of a moderation decision and cleared
// wholesale by their owner.
type Notification struct {
	ID         uint64    `json:"id"`
	Message    string    `json:"message"`
	ModelTitle string    `json:"modelTitle"`
	Kind       string    `json:"type"`
	CreatedAt  time.Time `json:"createdAt"`
}

type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

// Append adds a notification to the end of a user's list.
func (r *NotificationRepo) Append(ctx context.Context, userID uint64, message, modelTitle, kind string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO notifications (user_id, message, model_title, kind) VALUES (?,?,?,?)",
		userID, message, modelTitle, kind)
	return err
}

// ListByUser returns a user's notifications, newest first.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uint64) ([]Notification, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,message,model_title,kind,created_at FROM notifications WHERE user_id=? ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Message, &n.ModelTitle, &n.Kind, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ClearForUser removes every notification belonging to a user.
func (r *NotificationRepo) ClearForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM notifications WHERE user_id=?", userID)
	return err
}

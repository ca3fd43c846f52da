package hype

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/models"
)

// Notice is a message for a user, delivered after the ledger commits.
type Notice struct {
	UserID  string
	Kind    string
	Title   string
	Body    string
	Payload map[string]any
}

type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// StoreNotifier writes notices to the notifications table.
type StoreNotifier struct {
	db *gorm.DB
}

func NewStoreNotifier(db *gorm.DB) *StoreNotifier {
	return &StoreNotifier{db: db}
}

func (s *StoreNotifier) Notify(ctx context.Context, n Notice) error {
	row := models.Notification{
		UserID: n.UserID,
		Kind:   n.Kind,
		Title:  n.Title,
		Body:   n.Body,
	}
	if len(n.Payload) > 0 {
		b, err := json.Marshal(n.Payload)
		if err != nil {
			return err
		}
		row.Payload = b
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// LogNotifier only logs; nothing is stored for the inbox.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notice) error {
	logrus.WithFields(logrus.Fields{"user": n.UserID, "kind": n.Kind}).Info(n.Title)
	return nil
}

// NotifierByName picks a notifier from its config name: "store" (the
// default) or "log".
func NotifierByName(name string, db *gorm.DB) (Notifier, error) {
	switch name {
	case "", "store":
		return NewStoreNotifier(db), nil
	case "log":
		return LogNotifier{}, nil
	}
	return nil, fmt.Errorf("unknown notifier %q", name)
}

// deliver sends notices best-effort. Failures never reach the caller.
func (l *Ledger) deliver(ctx context.Context, notices []Notice) {
	for _, n := range notices {
		if err := l.notifier.Notify(ctx, n); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"user": n.UserID,
				"kind": n.Kind,
			}).Warn("notification delivery failed")
		}
	}
}

// Notifications lists a user's stored notifications, newest first.
func (l *Ledger) Notifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	var out []models.Notification
	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(clampLimit(limit, 20, 100)).
		Find(&out).Error
	return out, err
}

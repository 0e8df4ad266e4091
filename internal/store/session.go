package store

import (
	"context"
	"time"

	"realty_backend/internal/model"
	"realty_backend/pkg/apperror"

	"gorm.io/gorm"
)

// SessionStore keeps the audit trail of issued admin tokens. Nothing here is
// consulted when authorizing a request.
type SessionStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

func (s *SessionStore) Record(ctx context.Context, sess *model.AdminSession) error {
	if sess.LastActivity.IsZero() {
		sess.LastActivity = s.now()
	}
	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return apperror.Internal("Failed to record session", err)
	}
	return nil
}

func (s *SessionStore) Touch(ctx context.Context, tokenID string) error {
	return s.db.WithContext(ctx).Model(&model.AdminSession{}).
		Where("token_id = ?", tokenID).
		Update("last_activity", s.now()).Error
}

func (s *SessionStore) Revoke(ctx context.Context, tokenID string) error {
	return s.db.WithContext(ctx).Model(&model.AdminSession{}).
		Where("token_id = ?", tokenID).
		Update("revoked", true).Error
}

// Active counts sessions that are neither expired nor revoked.
func (s *SessionStore) Active(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.AdminSession{}).
		Where("expires_at > ? AND revoked = ?", s.now(), false).
		Count(&n).Error
	return n, err
}

// PurgeExpired deletes rows whose token expired before now.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", s.now()).Delete(&model.AdminSession{})
	return result.RowsAffected, result.Error
}

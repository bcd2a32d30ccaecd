package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm/clause"

	"github.com/beesaferoot/yatube/models"
)

// CreateSession stores a new session for userID and returns the raw token
// for the cookie. Only its hash is kept in the database.
func (s *Store) CreateSession(ctx context.Context, userID uint, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	now := s.Clock.NowUtc()
	session := models.Session{
		TokenHash: hashToken(token),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.conn(ctx).Omit(clause.Associations).Create(&session).Error; err != nil {
		return "", translate(err, "creating session failed")
	}
	return token, nil
}

// UserBySession resolves a cookie token to its user. Unknown and expired
// tokens yield ErrNotFound.
func (s *Store) UserBySession(ctx context.Context, token string) (*models.User, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, errors.Wrap(ErrNotFound, "invalid session token")
	}

	var session models.Session
	err := s.conn(ctx).
		Preload("User").
		Where("token_hash = ? AND expires_at > ?", hashToken(token), s.Clock.NowUtc()).
		First(&session).Error
	if err != nil {
		return nil, translate(err, "getting session failed")
	}
	return &session.User, nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	err := s.conn(ctx).Where("token_hash = ?", hashToken(token)).Delete(&models.Session{}).Error
	return translate(err, "deleting session failed")
}

func (s *Store) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	res := s.conn(ctx).Where("expires_at <= ?", s.Clock.NowUtc()).Delete(&models.Session{})
	if res.Error != nil {
		return 0, translate(res.Error, "purging sessions failed")
	}
	return res.RowsAffected, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

package auth

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/jobtracknow/jobtrack-api/internal/models"
)

// GormCodeStore persists authorization codes in the oauth_codes table. Codes
// survive restarts and are shared by all instances pointing at the same
// database, which is what a 10 minute code window needs in a horizontally
// scaled deployment.
type GormCodeStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormCodeStore(db *gorm.DB) *GormCodeStore {
	return &GormCodeStore{db: db, now: time.Now}
}

func (s *GormCodeStore) Store(ctx context.Context, code string, grant Grant) error {
	now := s.now()
	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = now
	}

	record := &models.AuthorizationCode{
		Code:                code,
		Username:            grant.Username,
		UserID:              grant.UserID,
		IsAdmin:             grant.IsAdmin,
		RedirectURI:         grant.RedirectURI,
		CodeChallenge:       grant.CodeChallenge,
		CodeChallengeMethod: grant.CodeChallengeMethod,
		State:               grant.State,
		Scope:               grant.Scope,
		CreatedAt:           grant.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return err
	}

	// Storage hygiene only; expiry is re-derived on every read regardless.
	cutoff := now.Add(-CodeTTL)
	if err := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AuthorizationCode{}).Error; err != nil {
		log.WithError(err).Warn("Failed to clean up expired authorization codes")
	}
	return nil
}

func (s *GormCodeStore) Retrieve(ctx context.Context, code string) (*Grant, error) {
	var record models.AuthorizationCode
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	grant := &Grant{
		Username:            record.Username,
		UserID:              record.UserID,
		IsAdmin:             record.IsAdmin,
		RedirectURI:         record.RedirectURI,
		CodeChallenge:       record.CodeChallenge,
		CodeChallengeMethod: record.CodeChallengeMethod,
		State:               record.State,
		Scope:               record.Scope,
		CreatedAt:           record.CreatedAt,
	}
	if record.Used || grant.Expired(s.now()) {
		return nil, ErrCodeNotFound
	}
	return grant, nil
}

// MarkUsed flips the used flag with a conditional update so that concurrent
// exchange attempts for the same code cannot both win: only the statement
// that actually transitions used=false to used=true reports one affected row.
func (s *GormCodeStore) MarkUsed(ctx context.Context, code string) (bool, error) {
	now := s.now()
	cutoff := now.Add(-CodeTTL)

	result := s.db.WithContext(ctx).
		Model(&models.AuthorizationCode{}).
		Where("code = ? AND used = ? AND created_at >= ?", code, false, cutoff).
		Updates(map[string]interface{}{"used": true, "used_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

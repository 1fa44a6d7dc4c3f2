package models

import (
	"time"
)

// AuthorizationCode is a single-use OAuth2 authorization code together with
// the grant metadata bound to it at login time. Expiry is always derived from
// CreatedAt on read; rows are only deleted for storage hygiene.
type AuthorizationCode struct {
	Code                string `gorm:"primaryKey"`
	Username            string `gorm:"not null"`
	UserID              uint
	IsAdmin             bool
	RedirectURI         string
	CodeChallenge       string
	CodeChallengeMethod string
	State               string
	Scope               string
	CreatedAt           time.Time `gorm:"not null"`
	Used                bool      `gorm:"not null;default:false"`
	UsedAt              *time.Time
}

func (AuthorizationCode) TableName() string {
	return "oauth_codes"
}

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token lifetime and fixed claim values.
const (
	TokenTTL         = 24 * time.Hour
	TokenExpiresIn   = 86400 // TokenTTL in seconds, surfaced in the token response
	tokenIssuer      = "job-track-now-api"
	tokenAudience    = "account"
	authorizedParty  = "job-tracker-client"
	signingAlgorithm = "HS256"
)

// ErrInvalidToken is the uniform verification failure. Malformed, forged and
// expired tokens are indistinguishable to the caller.
var ErrInvalidToken = errors.New("invalid or expired token")

// RoleAccess wraps a role list claim.
type RoleAccess struct {
	Roles []string `json:"roles"`
}

// AccessClaims is the full claim set carried by an access token. A typed
// struct rather than jwt.MapClaims keeps the which-claims-are-present
// contract explicit. There is intentionally no nbf claim: clock skew between
// hosts was rejecting freshly issued tokens.
type AccessClaims struct {
	jwt.RegisteredClaims
	TokenType         string                `json:"typ"`
	Scope             string                `json:"scope"`
	PreferredUsername string                `json:"preferred_username"`
	EmailVerified     bool                  `json:"email_verified"`
	AuthTime          int64                 `json:"auth_time"`
	ACR               string                `json:"acr"`
	AuthorizedParty   string                `json:"azp"`
	UserID            uint                  `json:"user_id"`
	IsAdmin           bool                  `json:"is_admin"`
	FirstName         string                `json:"first_name,omitempty"`
	LastName          string                `json:"last_name,omitempty"`
	RealmAccess       RoleAccess            `json:"realm_access"`
	ResourceAccess    map[string]RoleAccess `json:"resource_access"`
	SessionState      string                `json:"session_state"`
}

// Identity is what the token issuer needs to know about the authenticated
// user.
type Identity struct {
	Username  string
	UserID    uint
	IsAdmin   bool
	FirstName string
	LastName  string
}

// TokenService signs and verifies access tokens with a process-wide symmetric
// key. The key must be identical across all instances of a scaled deployment
// or tokens issued by one instance fail verification on another.
type TokenService struct {
	key []byte
	now func() time.Time
}

func NewTokenService(key []byte) *TokenService {
	return &TokenService{key: key, now: time.Now}
}

// Issue builds and signs a 24 hour access token for the given identity.
func (t *TokenService) Issue(identity Identity, scope string) (string, error) {
	now := t.now()

	claims := &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Username,
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			ID:        uuid.New().String(),
		},
		TokenType:         "Bearer",
		Scope:             scope,
		PreferredUsername: identity.Username,
		EmailVerified:     false,
		AuthTime:          now.Unix(),
		ACR:               "1",
		AuthorizedParty:   authorizedParty,
		UserID:            identity.UserID,
		IsAdmin:           identity.IsAdmin,
		FirstName:         identity.FirstName,
		LastName:          identity.LastName,
		RealmAccess: RoleAccess{
			Roles: []string{"user", "job_tracker_user"},
		},
		ResourceAccess: map[string]RoleAccess{
			"account": {Roles: []string{"manage-account", "view-profile"}},
		},
		SessionState: uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.key)
}

// Verify validates the signature and expiry of an access token and returns
// its claims. The audience claim is present on every issued token but is not
// enforced here; single-audience deployments gain nothing from the check and
// it broke token portability between environments sharing a key. Any failure
// maps to ErrInvalidToken.
func (t *TokenService) Verify(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.key, nil
	}, jwt.WithValidMethods([]string{signingAlgorithm}), jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

package auth

import (
	"github.com/jobtracknow/jobtrack-api/internal/services"
)

// OAuthService wires the authorization code flow together: the authorize,
// login and token handlers share the code store, the token service and the
// user store.
type OAuthService struct {
	codes  CodeStore
	tokens *TokenService
	users  services.UserService
}

func NewOAuthService(codes CodeStore, tokens *TokenService, users services.UserService) *OAuthService {
	return &OAuthService{
		codes:  codes,
		tokens: tokens,
		users:  users,
	}
}

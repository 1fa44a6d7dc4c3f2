package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/jobtracknow/jobtrack-api/internal/models"
)

// TokenResponse is the successful token exchange body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// HandleToken exchanges an authorization code for an access token. The gates
// run in a fixed order, each short-circuiting with 400: grant_type, code
// retrieval, redirect_uri match, PKCE proof, then the atomic used-marking.
// redirect_uri is deliberately checked before the PKCE proof.
// @Summary OAuth2 token endpoint
// @Description Exchanges an authorization code for a Bearer access token
// @Tags OAuth2
// @Accept application/x-www-form-urlencoded
// @Produce json
// @Param grant_type formData string true "Must be 'authorization_code'"
// @Param code formData string true "Authorization code"
// @Param code_verifier formData string true "PKCE code verifier"
// @Param redirect_uri formData string true "Callback URI, must match the login-time value"
// @Param client_id formData string false "Client identifier"
// @Param client_secret formData string false "Client secret (unused)"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /v1/token [post]
func (o *OAuthService) HandleToken(c *gin.Context) {
	grantType := c.PostForm("grant_type")
	code := c.PostForm("code")
	codeVerifier := c.PostForm("code_verifier")
	redirectURI := c.PostForm("redirect_uri")

	log.WithField("grant_type", grantType).Info("Token exchange request")

	if grantType != "authorization_code" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Detail: "Invalid grant_type. Must be 'authorization_code'",
		})
		return
	}

	ctx := c.Request.Context()

	grant, err := o.codes.Retrieve(ctx, code)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			log.Warn("Invalid authorization code")
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Detail: "Invalid or expired authorization code",
			})
			return
		}
		// A storage failure is not a routine auth failure; masking it as one
		// would hide a durability bug behind 400s.
		log.WithError(err).Error("Authorization code lookup failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Token exchange error"})
		return
	}

	if grant.RedirectURI != redirectURI {
		log.WithFields(log.Fields{
			"expected": grant.RedirectURI,
			"received": redirectURI,
		}).Warn("Redirect URI mismatch")
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "Redirect URI mismatch"})
		return
	}

	if !VerifyPKCE(codeVerifier, grant.CodeChallenge, grant.CodeChallengeMethod) {
		log.Warn("PKCE verification failed")
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "Invalid code_verifier"})
		return
	}

	flipped, err := o.codes.MarkUsed(ctx, code)
	if err != nil {
		log.WithError(err).Error("Failed to mark authorization code used")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Token exchange error"})
		return
	}
	if !flipped {
		// Another exchange consumed the code between Retrieve and here.
		log.Warn("Authorization code already consumed")
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Detail: "Invalid or expired authorization code",
		})
		return
	}

	identity := Identity{
		Username: grant.Username,
		UserID:   grant.UserID,
		IsAdmin:  grant.IsAdmin,
	}

	// The grant does not carry profile fields; fill them in from the user
	// store. A lookup failure only costs the name claims, not the token.
	if user, err := o.users.GetUserByID(grant.UserID); err != nil {
		log.WithError(err).WithField("user_id", grant.UserID).
			Warn("Failed to resolve user profile for token claims")
	} else {
		identity.FirstName = user.FirstName
		identity.LastName = user.LastName
	}

	accessToken, err := o.tokens.Issue(identity, grant.Scope)
	if err != nil {
		log.WithError(err).Error("Failed to sign access token")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Token exchange error"})
		return
	}

	log.WithField("username", grant.Username).Info("Token issued successfully")

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   TokenExpiresIn,
	})
}

package auth

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/jobtracknow/jobtrack-api/internal/models"
)

// HandleLogin authenticates the submitted credentials and, on success, mints
// an authorization code bound to the flow parameters echoed back by the login
// form. The 401 message is identical whether the user is unknown or the
// password is wrong.
// @Summary OAuth2 login endpoint
// @Description Authenticates the user and redirects to the callback with an authorization code
// @Tags OAuth2
// @Accept application/x-www-form-urlencoded
// @Param response_type formData string true "Must be 'code'"
// @Param redirect_uri formData string true "Callback URI"
// @Param state formData string true "CSRF state token"
// @Param code_challenge formData string true "PKCE code challenge"
// @Param code_challenge_method formData string true "PKCE method"
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Param client_id formData string false "Client identifier"
// @Param scope formData string false "Requested scope"
// @Success 302 {string} string "Redirect to redirect_uri with code and state"
// @Failure 401 {object} models.ErrorResponse
// @Router /v1/login [post]
func (o *OAuthService) HandleLogin(c *gin.Context) {
	redirectURI := c.PostForm("redirect_uri")
	state := c.PostForm("state")
	codeChallenge := c.PostForm("code_challenge")
	codeChallengeMethod := c.PostForm("code_challenge_method")
	username := c.PostForm("username")
	password := c.PostForm("password")
	scope := c.DefaultPostForm("scope", "all")

	log.WithField("username", username).Info("Login attempt")

	result, err := o.users.Authenticate(username, password)
	if err != nil {
		log.WithError(err).Error("Credential lookup failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Authentication error"})
		return
	}
	if !result.Authenticated {
		log.WithField("username", username).Warn("Login failed - invalid credentials")
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Detail: "Invalid username or password"})
		return
	}
	user := result.User

	code, err := GenerateCode()
	if err != nil {
		log.WithError(err).Error("Failed to generate authorization code")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Authentication error"})
		return
	}

	grant := Grant{
		Username:            username,
		UserID:              user.ID,
		IsAdmin:             user.IsAdmin,
		RedirectURI:         redirectURI,
		CodeChallenge:       codeChallenge,
		CodeChallengeMethod: codeChallengeMethod,
		State:               state,
		Scope:               scope,
	}

	// A code that was never recorded must never reach the client: a later
	// "exchange" of it would be unverifiable. Fail the login instead.
	if err := o.codes.Store(c.Request.Context(), code, grant); err != nil {
		log.WithError(err).Error("Failed to store authorization code")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Authentication error"})
		return
	}

	log.WithFields(log.Fields{
		"username":     username,
		"redirect_uri": redirectURI,
	}).Info("Login successful, redirecting to callback")

	redirectURL := redirectURI + "?code=" + url.QueryEscape(code) + "&state=" + url.QueryEscape(state)
	c.Redirect(http.StatusFound, redirectURL)
}

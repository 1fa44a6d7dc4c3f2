package auth

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/jobtracknow/jobtrack-api/internal/models"
)

// loginFormParams is everything the login form round-trips back to /v1/login
// as hidden fields. The server holds no session between showing the form and
// receiving the credentials, so the flow depends on the client echoing these
// unmodified.
type loginFormParams struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

var loginFormTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Job Track Now - Login</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            display: flex; justify-content: center; align-items: center;
            min-height: 100vh; padding: 20px;
        }
        .login-container {
            background: white; border-radius: 12px; padding: 40px;
            box-shadow: 0 20px 60px rgba(0, 0, 0, 0.3);
            max-width: 400px; width: 100%;
        }
        h1 { font-size: 2rem; color: #333; margin-bottom: 8px; text-align: center; }
        .subtitle { font-size: 1rem; color: #666; text-align: center; margin-bottom: 32px; }
        .form-group { margin-bottom: 20px; }
        label { display: block; font-size: 0.9rem; font-weight: 600; color: #333; margin-bottom: 8px; }
        input[type="text"], input[type="password"] {
            width: 100%; padding: 12px 16px; font-size: 1rem;
            border: 2px solid #e0e0e0; border-radius: 8px;
        }
        button {
            width: 100%; padding: 14px 24px; font-size: 1rem; font-weight: 600;
            color: white; background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            border: none; border-radius: 8px; cursor: pointer;
        }
        .info { font-size: 0.85rem; color: #999; text-align: center; margin-top: 16px; }
    </style>
</head>
<body>
    <div class="login-container">
        <h1>Job Track Now</h1>
        <p class="subtitle">Sign in to continue</p>
        <form action="/v1/login" method="POST">
            <input type="hidden" name="response_type" value="{{.ResponseType}}">
            <input type="hidden" name="client_id" value="{{.ClientID}}">
            <input type="hidden" name="redirect_uri" value="{{.RedirectURI}}">
            <input type="hidden" name="scope" value="{{.Scope}}">
            <input type="hidden" name="state" value="{{.State}}">
            <input type="hidden" name="code_challenge" value="{{.CodeChallenge}}">
            <input type="hidden" name="code_challenge_method" value="{{.CodeChallengeMethod}}">
            <div class="form-group">
                <label for="username">Username</label>
                <input type="text" id="username" name="username" required autocomplete="username" autofocus>
            </div>
            <div class="form-group">
                <label for="password">Password</label>
                <input type="password" id="password" name="password" required autocomplete="current-password">
            </div>
            <button type="submit">Sign In</button>
            <p class="info">Secure authentication using OAuth2 with PKCE</p>
        </form>
    </div>
</body>
</html>
`))

// HandleAuthorize renders the login form for the authorization code flow.
// Structural errors are answered directly with 400 instead of a redirect:
// the redirect_uri has not been proven safe at this point.
// @Summary OAuth2 authorization endpoint
// @Description Validates the authorization request and displays the login form
// @Tags OAuth2
// @Produce html
// @Param response_type query string true "Must be 'code'"
// @Param redirect_uri query string true "Callback URI"
// @Param state query string true "CSRF state token"
// @Param code_challenge query string true "PKCE code challenge"
// @Param code_challenge_method query string true "PKCE method: S256 or plain"
// @Param client_id query string false "Client identifier"
// @Param scope query string false "Requested scope"
// @Success 200 {string} string "HTML login form"
// @Failure 400 {object} models.ErrorResponse
// @Router /v1/authorize [get]
func (o *OAuthService) HandleAuthorize(c *gin.Context) {
	params := loginFormParams{
		ResponseType:        c.Query("response_type"),
		ClientID:            c.Query("client_id"),
		RedirectURI:         c.Query("redirect_uri"),
		Scope:               c.DefaultQuery("scope", "all"),
		State:               c.Query("state"),
		CodeChallenge:       c.Query("code_challenge"),
		CodeChallengeMethod: c.Query("code_challenge_method"),
	}

	log.WithFields(log.Fields{
		"response_type":         params.ResponseType,
		"redirect_uri":          params.RedirectURI,
		"code_challenge_method": params.CodeChallengeMethod,
	}).Info("Authorization request received")

	if params.ResponseType != "code" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Detail: "Invalid response_type. Must be 'code'",
		})
		return
	}
	if !ValidChallengeMethod(params.CodeChallengeMethod) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Detail: "Invalid code_challenge_method. Must be 'S256' or 'plain'",
		})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := loginFormTemplate.Execute(c.Writer, params); err != nil {
		log.WithError(err).Error("Failed to render login form")
	}
}

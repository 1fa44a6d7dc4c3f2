package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jobtracknow/jobtrack-api/internal/models"
	"github.com/jobtracknow/jobtrack-api/internal/services"
)

const (
	testRedirectURI = "http://localhost:3000/callback"
	testVerifier    = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	testPassword    = "s3cret-password"
)

func setupOAuthRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	db := setupCodeTestDB(t)
	userService := services.NewUserService(db)

	hashed, err := services.HashPassword(testPassword)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{
		Login:     "jdoe",
		Passwd:    hashed,
		Email:     "jdoe@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		IsAdmin:   false,
	}).Error)

	oauthService := NewOAuthService(
		NewMemoryCodeStore(),
		NewTokenService(testSigningKey),
		userService,
	)

	router := gin.New()
	router.GET("/v1/authorize", oauthService.HandleAuthorize)
	router.POST("/v1/login", oauthService.HandleLogin)
	router.POST("/v1/token", oauthService.HandleToken)
	return router, db
}

func authorizeQuery() url.Values {
	return url.Values{
		"response_type":         {"code"},
		"redirect_uri":          {testRedirectURI},
		"state":                 {"state-token-123"},
		"code_challenge":        {challengeFor(testVerifier)},
		"code_challenge_method": {"S256"},
	}
}

func postForm(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// loginForCode runs /v1/login with valid credentials and returns the minted
// authorization code.
func loginForCode(t *testing.T, router *gin.Engine) string {
	form := authorizeQuery()
	form.Set("username", "jdoe")
	form.Set("password", testPassword)

	w := postForm(router, "/v1/login", form)
	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	code := location.Query().Get("code")
	require.NotEmpty(t, code)
	return code
}

func tokenForm(code string) url.Values {
	return url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"code_verifier": {testVerifier},
		"redirect_uri":  {testRedirectURI},
	}
}

func TestAuthorizeRendersLoginForm(t *testing.T) {
	router, _ := setupOAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/authorize?"+authorizeQuery().Encode(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	body := w.Body.String()
	// Every flow parameter must round-trip through the form.
	assert.Contains(t, body, `name="response_type" value="code"`)
	assert.Contains(t, body, `name="state" value="state-token-123"`)
	assert.Contains(t, body, `name="code_challenge" value="`+challengeFor(testVerifier)+`"`)
	assert.Contains(t, body, `name="code_challenge_method" value="S256"`)
	assert.Contains(t, body, `name="scope" value="all"`)
	assert.Contains(t, body, `action="/v1/login"`)
}

func TestAuthorizeEscapesParameters(t *testing.T) {
	router, _ := setupOAuthRouter(t)

	query := authorizeQuery()
	query.Set("state", `"><script>alert(1)</script>`)
	req := httptest.NewRequest(http.MethodGet, "/v1/authorize?"+query.Encode(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "<script>alert(1)</script>")
}

func TestAuthorizeRejectsBadResponseType(t *testing.T) {
	router, _ := setupOAuthRouter(t)

	query := authorizeQuery()
	query.Set("response_type", "token")
	req := httptest.NewRequest(http.MethodGet, "/v1/authorize?"+query.Encode(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid response_type")
}

func TestAuthorizeRejectsBadChallengeMethod(t *testing.T) {
	router, _ := setupOAuthRouter(t)

	query := authorizeQuery()
	query.Set("code_challenge_method", "S512")
	req := httptest.NewRequest(http.MethodGet, "/v1/authorize?"+query.Encode(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid code_challenge_method")
}

func TestLoginRedirectsWithCodeAndState(t *testing.T) {
	router, _ := setupOAuthRouter(t)

	form := authorizeQuery()
	form.Set("username", "jdoe")
	form.Set("password", testPassword)

	w := postForm(router, "/v1/login", form)
	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:3000", location.Host)
	assert.Equal(t, "/callback", location.Path)
	assert.NotEmpty(t, location.Query().Get("code"))
	assert.Equal(t, "state-token-123", location.Query().Get("state"))
}

func TestLoginWrongPassword(t *testing.T) {
	router, _ := setupOAuthRouter(t)

	form := authorizeQuery()
	form.Set("username", "jdoe")
	form.Set("password", "wrong-password")

	w := postForm(router, "/v1/login", form)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid username or password")
}

func TestLoginUnknownUserSameMessage(t *testing.T) {
	router, _ := setupOAuthRouter(t)

	form := authorizeQuery()
	form.Set("username", "nobody")
	form.Set("password", "whatever")

	w := postForm(router, "/v1/login", form)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	// Same message as a wrong password: no username enumeration.
	assert.Contains(t, w.Body.String(), "Invalid username or password")
}

func TestTokenExchangeIssuesBearerToken(t *testing.T) {
	router, _ := setupOAuthRouter(t)
	code := loginForCode(t, router)

	w := postForm(router, "/v1/token", tokenForm(code))
	require.Equal(t, http.StatusOK, w.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 86400, resp.ExpiresIn)

	claims, err := NewTokenService(testSigningKey).Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", claims.Subject)
	assert.Equal(t, "all", claims.Scope)
	// Profile fields were resolved from the user store at exchange time.
	assert.Equal(t, "Jane", claims.FirstName)
	assert.Equal(t, "Doe", claims.LastName)
}

func TestTokenExchangeRejectsBadGrantType(t *testing.T) {
	router, _ := setupOAuthRouter(t)
	code := loginForCode(t, router)

	form := tokenForm(code)
	form.Set("grant_type", "client_credentials")
	w := postForm(router, "/v1/token", form)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid grant_type")
}

func TestTokenExchangeRejectsUnknownCode(t *testing.T) {
	router, _ := setupOAuthRouter(t)

	w := postForm(router, "/v1/token", tokenForm("completely-made-up-code"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired authorization code")
}

func TestTokenExchangeRejectsRedirectMismatch(t *testing.T) {
	router, _ := setupOAuthRouter(t)
	code := loginForCode(t, router)

	form := tokenForm(code)
	form.Set("redirect_uri", "http://evil.example.com/callback")
	w := postForm(router, "/v1/token", form)

	// Mismatch fails even though the verifier is correct.
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Redirect URI mismatch")
}

func TestTokenExchangeRejectsBadVerifier(t *testing.T) {
	router, _ := setupOAuthRouter(t)
	code := loginForCode(t, router)

	form := tokenForm(code)
	form.Set("code_verifier", "this-is-not-the-right-verifier-at-all-0000")
	w := postForm(router, "/v1/token", form)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid code_verifier")
}

func TestTokenExchangeSingleUse(t *testing.T) {
	router, _ := setupOAuthRouter(t)
	code := loginForCode(t, router)

	first := postForm(router, "/v1/token", tokenForm(code))
	require.Equal(t, http.StatusOK, first.Code)

	// Replaying the exact same exchange must fail.
	second := postForm(router, "/v1/token", tokenForm(code))
	assert.Equal(t, http.StatusBadRequest, second.Code)
	assert.Contains(t, second.Body.String(), "Invalid or expired authorization code")
}

func TestTokenExchangeFailedPKCEDoesNotConsumeCode(t *testing.T) {
	router, _ := setupOAuthRouter(t)
	code := loginForCode(t, router)

	bad := tokenForm(code)
	bad.Set("code_verifier", "this-is-not-the-right-verifier-at-all-0000")
	w := postForm(router, "/v1/token", bad)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// The failed attempt did not reach the consume step; a correct retry
	// with the same code still works.
	w = postForm(router, "/v1/token", tokenForm(code))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTokenExchangePlainMethod(t *testing.T) {
	router, _ := setupOAuthRouter(t)

	form := authorizeQuery()
	form.Set("code_challenge", "plain-challenge-value")
	form.Set("code_challenge_method", "plain")
	form.Set("username", "jdoe")
	form.Set("password", testPassword)

	w := postForm(router, "/v1/login", form)
	require.Equal(t, http.StatusFound, w.Code)
	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	code := location.Query().Get("code")

	exchange := tokenForm(code)
	exchange.Set("code_verifier", "plain-challenge-value")
	resp := postForm(router, "/v1/token", exchange)
	assert.Equal(t, http.StatusOK, resp.Code)
}

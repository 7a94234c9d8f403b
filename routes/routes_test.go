package routes

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cleanstreet-be/config"
	"cleanstreet-be/models"
	"cleanstreet-be/policy"
	"cleanstreet-be/repository"
	"cleanstreet-be/services"
	"cleanstreet-be/utils"
)

const password = "Str0ng!pass"

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	users  *repository.MemoryUserRepository
	tokens *utils.JWTManager
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:  "routes-test-secret-routes-test-secret",
			JWTIssuer:  "cleanstreet",
			TokenTTL:   time.Hour,
			CookieName: "auth_token",
		},
		RateLimit: config.RateLimitConfig{IssuesPerWindow: 10, Window: 24 * time.Hour, KeyPrefix: "issue_limit"},
		CORS:      config.CORSConfig{AllowedOrigins: "http://localhost:5173"},
		ImageKit:  config.ImageKitConfig{TokenTTL: 30 * time.Minute},
	}
}

func newTestAPI(t *testing.T, cfg *config.Config, rdb *redis.Client, signer *utils.ImageKitSigner) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	issueRepo := repository.NewMemoryIssueRepository()
	users := repository.NewMemoryUserRepository()
	tokens := utils.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	if signer == nil {
		signer = utils.NewImageKitSigner("", "", "", cfg.ImageKit.TokenTTL)
	}

	var stats services.StatsCache
	if rdb != nil {
		stats = services.NewRedisStatsCache(rdb, "stats", time.Minute)
	}

	router := Setup(Deps{
		Config:       cfg,
		Logger:       logger,
		Tokens:       tokens,
		Signer:       signer,
		Issues:       services.NewIssueService(issueRepo, stats, logger),
		Interactions: services.NewInteractionService(issueRepo, logger),
		Auth:         services.NewAuthService(users, tokens, false, logger),
		Redis:        rdb,
	})
	return &testAPI{t: t, router: router, users: users, tokens: tokens}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// register signs up through the API and returns the bearer token.
func (a *testAPI) register(name string) (string, primitive.ObjectID) {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     name,
		"email":    name + "@example.com",
		"password": password,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var res struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(a.t, w, &res)
	return res.Token, res.User.ID
}

// admin stores an admin account directly, since admins cannot self-register.
func (a *testAPI) admin() string {
	a.t.Helper()
	u := &models.User{Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin, Password: password}
	require.NoError(a.t, u.HashPassword())
	require.NoError(a.t, a.users.Create(context.Background(), u))
	token, err := a.tokens.GenerateToken(u)
	require.NoError(a.t, err)
	return token
}

func (a *testAPI) createIssue(token string, title string) models.Issue {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/issues", token, gin.H{
		"issueTitle":    title,
		"issueType":     "Garbage",
		"priorityLevel": "High",
		"address":       "12 Park Street",
		"images":        []string{"https://ik.imagekit.io/demo/a.jpg"},
		"location":      gin.H{"lat": 22.5, "lng": 88.3},
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var issue models.Issue
	decode(a.t, w, &issue)
	return issue
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	decode(t, w, &body)
	return body
}

func TestPing(t *testing.T) {
	api := newTestAPI(t, testConfig(), nil, nil)

	w := api.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())

	w = api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t, testConfig(), nil, nil)
	_, id := api.register("asha")

	w := api.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Other", "email": "ASHA@example.com", "password": password,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Weak", "email": "weak@example.com", "password": "weakpassword",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "password", errorBody(t, w)["field"])

	w = api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "asha@example.com", "password": "Wr0ng!pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "asha@example.com", "password": password})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	decode(t, w, &login)
	require.NotEmpty(t, login.Token)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "auth_token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, login.Token, cookie.Value)

	// The cookie alone authenticates.
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.AddCookie(cookie)
	pw := httptest.NewRecorder()
	api.router.ServeHTTP(pw, req)
	require.Equal(t, http.StatusOK, pw.Code)
	var profile map[string]any
	decode(t, pw, &profile)
	assert.Equal(t, id.Hex(), profile["_id"])
	assert.Equal(t, "asha@example.com", profile["email"])
	assert.NotContains(t, profile, "password")

	w = api.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Result().Cookies())
	assert.Less(t, w.Result().Cookies()[0].MaxAge, 0)
}

func TestIssueLifecycle(t *testing.T) {
	api := newTestAPI(t, testConfig(), nil, nil)
	ownerToken, ownerID := api.register("owner")
	otherToken, _ := api.register("other")
	adminToken := api.admin()

	issue := api.createIssue(ownerToken, "Pothole on Main Road")
	assert.Equal(t, models.Pending, issue.Status)
	assert.Equal(t, ownerID, issue.ReportedBy.ID)
	assert.Equal(t, "owner", issue.ReportedBy.Name)
	path := "/api/issues/" + issue.ID.Hex()

	w := api.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var raw map[string]any
	decode(t, w, &raw)
	assert.Equal(t, []any{}, raw["likes"])
	assert.Equal(t, []any{}, raw["comments"])
	assert.NotContains(t, raw, "access")

	type accessBody struct {
		Access *policy.Access `json:"access"`
	}
	var view accessBody
	w = api.do(http.MethodGet, path, ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &view)
	require.NotNil(t, view.Access)
	assert.Equal(t, policy.LabelOwner, view.Access.Label)
	assert.Equal(t, policy.OwnerFields, view.Access.EditableFields)

	view = accessBody{}
	w = api.do(http.MethodGet, path, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &view)
	require.NotNil(t, view.Access)
	assert.Equal(t, policy.LabelAdmin, view.Access.Label)
	assert.Equal(t, policy.AdminFields, view.Access.EditableFields)

	view = accessBody{}
	w = api.do(http.MethodGet, path, otherToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &view)
	require.NotNil(t, view.Access)
	assert.Equal(t, policy.LabelViewOnly, view.Access.Label)
	assert.Empty(t, view.Access.EditableFields)

	// A bad token on a public read is ignored, not rejected.
	raw = nil
	w = api.do(http.MethodGet, path, "not-a-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &raw)
	assert.NotContains(t, raw, "access")
	assert.Equal(t, issue.ID.Hex(), raw["_id"])

	w = api.do(http.MethodPut, path, otherToken, gin.H{"status": "Resolved"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPut, path, ownerToken, gin.H{"status": "Resolved"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPut, path, ownerToken, gin.H{"description": "Deep and wide"})
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodPut, path, adminToken, gin.H{"status": "Resolved"})
	require.Equal(t, http.StatusOK, w.Code)
	var updated models.Issue
	decode(t, w, &updated)
	assert.Equal(t, models.Resolved, updated.Status)
	assert.Equal(t, "Deep and wide", updated.Description)

	w = api.do(http.MethodPut, path, adminToken, gin.H{"status": "Closed"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "status", errorBody(t, w)["field"])

	w = api.do(http.MethodPut, path, "", gin.H{"status": "Pending"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodGet, "/api/issues/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"totalIssues":1,"pendingIssues":0,"inProgressIssues":0,"resolvedIssues":1}`, w.Body.String())

	w = api.do(http.MethodGet, "/api/issues/my-issues", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []models.Issue
	decode(t, w, &mine)
	require.Len(t, mine, 1)

	w = api.do(http.MethodDelete, path, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = api.do(http.MethodDelete, path, ownerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = api.do(http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodGet, "/api/issues/not-an-id", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateIssueValidation(t *testing.T) {
	api := newTestAPI(t, testConfig(), nil, nil)
	token, _ := api.register("asha")

	images := make([]string, 5)
	for i := range images {
		images[i] = fmt.Sprintf("https://ik.imagekit.io/demo/%d.jpg", i)
	}
	w := api.do(http.MethodPost, "/api/issues", token, gin.H{
		"issueTitle": "Too many photos", "issueType": "Garbage", "priorityLevel": "Low", "images": images,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "images", errorBody(t, w)["field"])

	w = api.do(http.MethodPost, "/api/issues", "", gin.H{"issueTitle": "anon"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/issues", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListIssues(t *testing.T) {
	api := newTestAPI(t, testConfig(), nil, nil)
	token, _ := api.register("asha")
	adminToken := api.admin()

	for i := 0; i < 12; i++ {
		issue := api.createIssue(token, fmt.Sprintf("Issue %02d", i))
		if i < 10 {
			w := api.do(http.MethodPut, "/api/issues/"+issue.ID.Hex(), adminToken, gin.H{"status": "Resolved"})
			require.Equal(t, http.StatusOK, w.Code)
		}
	}

	w := api.do(http.MethodGet, "/api/issues?status=Resolved&page=1&limit=8", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res services.ListIssuesResult
	decode(t, w, &res)
	assert.EqualValues(t, 10, res.Total)
	assert.Equal(t, 2, res.TotalPages)
	assert.Len(t, res.Issues, 8)

	w = api.do(http.MethodGet, "/api/issues?status=all&issueType=all&search=issue%201", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &res)
	assert.EqualValues(t, 2, res.Total)

	w = api.do(http.MethodGet, "/api/issues?status=Closed", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Page numbers whose offset overflows int land past the end.
	for _, page := range []string{"2305843009213693952", "2305843009213693953", "9223372036854775807"} {
		w = api.do(http.MethodGet, "/api/issues?limit=8&page="+page, "", nil)
		require.Equal(t, http.StatusOK, w.Code, page)
		var far services.ListIssuesResult
		decode(t, w, &far)
		assert.Empty(t, far.Issues, page)
		assert.EqualValues(t, 12, far.Total, page)
	}
}

func TestReactionsAndComments(t *testing.T) {
	api := newTestAPI(t, testConfig(), nil, nil)
	aToken, _ := api.register("a")
	bToken, _ := api.register("b")
	adminToken := api.admin()

	issue := api.createIssue(aToken, "Broken streetlight")
	base := "/api/issues/" + issue.ID.Hex()

	var react services.ReactionResult
	w := api.do(http.MethodPost, base+"/like", bToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &react)
	assert.Equal(t, 1, react.Likes)
	assert.True(t, react.UserLiked)

	w = api.do(http.MethodPost, base+"/dislike", bToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &react)
	assert.Equal(t, 0, react.Likes)
	assert.Equal(t, 1, react.Dislikes)
	assert.True(t, react.UserDisliked)
	assert.False(t, react.UserLiked)

	w = api.do(http.MethodPost, base+"/like", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var thread struct {
		Comments []models.Comment `json:"comments"`
	}
	w = api.do(http.MethodPost, base+"/comments", aToken, gin.H{"text": "first"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = api.do(http.MethodPost, base+"/comments", bToken, gin.H{"text": "second"})
	require.Equal(t, http.StatusCreated, w.Code)
	decode(t, w, &thread)
	require.Len(t, thread.Comments, 2)
	first, second := thread.Comments[0], thread.Comments[1]

	w = api.do(http.MethodPost, base+"/comments", aToken, gin.H{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodDelete, base+"/comments/"+first.ID.Hex(), bToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodDelete, base+"/comments/"+first.ID.Hex(), aToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &thread)
	require.Len(t, thread.Comments, 1)
	assert.Equal(t, second.ID, thread.Comments[0].ID)

	w = api.do(http.MethodDelete, base+"/comments/"+first.ID.Hex(), aToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodDelete, base+"/comments/"+second.ID.Hex(), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, base+"/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"comments":[]}`, w.Body.String())
}

func TestIssueCreationRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	cfg.RateLimit.IssuesPerWindow = 2
	api := newTestAPI(t, cfg, rdb, nil)
	token, _ := api.register("asha")

	// Rejected submissions do not use up the allowance.
	for i := 0; i < 3; i++ {
		w := api.do(http.MethodPost, "/api/issues", token, gin.H{"issueType": "Garbage", "priorityLevel": "Low"})
		require.Equal(t, http.StatusBadRequest, w.Code)
	}

	api.createIssue(token, "one")
	api.createIssue(token, "two")

	w := api.do(http.MethodPost, "/api/issues", token, gin.H{
		"issueTitle": "three", "issueType": "Garbage", "priorityLevel": "Low",
	})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"storage":"ok","redis":"ok"}`, w.Body.String())
}

func TestUploadAuth(t *testing.T) {
	api := newTestAPI(t, testConfig(), nil, nil)
	w := api.do(http.MethodGet, "/api/imagekit/auth", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	signer := utils.NewImageKitSigner("private_key", "public_key", "https://ik.imagekit.io/demo", 30*time.Minute)
	api = newTestAPI(t, testConfig(), nil, signer)

	for _, path := range []string{"/api/imagekit/auth", "/api/upload/auth"} {
		w := api.do(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, w.Code, path)

		var auth utils.UploadAuth
		decode(t, w, &auth)
		assert.NotEmpty(t, auth.Token)
		assert.Greater(t, auth.Expire, time.Now().Unix())
		mac := hmac.New(sha1.New, []byte("private_key"))
		mac.Write([]byte(auth.Token + strconv.FormatInt(auth.Expire, 10)))
		assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), auth.Signature)
		assert.Equal(t, "public_key", auth.PublicKey)
	}
}

package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/mizusawa-dev/clique/api/rest"
	"github.com/mizusawa-dev/clique/audit"
	"github.com/mizusawa-dev/clique/config"
	"github.com/mizusawa-dev/clique/fanout"
	"github.com/mizusawa-dev/clique/feed"
	mw "github.com/mizusawa-dev/clique/middleware"
	"github.com/mizusawa-dev/clique/social"
	"github.com/mizusawa-dev/clique/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	router *gin.Engine
	db     *gorm.DB
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	fan := fanout.New(ps, logger)
	feedCfg := config.FeedConfig{DefaultLimit: 20, MaxLimit: 100, UnreadCacheTTL: 5 * time.Minute}
	sec := config.SecurityConfig{JWTSecret: "test-secret", JWTTTLH: time.Hour}

	feedSvc := feed.NewService(db, c, fan, logger, feedCfg.UnreadCacheTTL)
	socialSvc := social.NewService(db, c, fan, logger)
	auditSvc := audit.New(db, logger)
	t.Cleanup(func() { auditSvc.Stop(context.Background()) })

	r := gin.New()
	api := r.Group("/api")
	private := r.Group("/api")
	private.Use(mw.Auth(sec, c))

	apirest.NewAuthHandler(db, c, sec).Register(api, private)
	apirest.NewNotificationHandler(feedSvc, socialSvc, auditSvc, feedCfg).Register(private)
	apirest.NewFriendHandler(feedSvc, socialSvc, auditSvc, feedCfg).Register(private)
	apirest.NewCommunityHandler(feedSvc, socialSvc, auditSvc, feedCfg).Register(private)

	return &harness{router: r, db: db}
}

// do performs a request with an optional bearer token and JSON body.
func (h *harness) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

// signup registers a user and logs in, returning the user id and token.
func (h *harness) signup(t *testing.T, username string) (string, string) {
	t.Helper()
	w := h.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"username": username,
		"password": "password-123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = h.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": username,
		"password": "password-123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.UserID, resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

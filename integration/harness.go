// Package integration wires the full HTTP stack (middleware, REST, SSE)
// against in-process backends and exercises complete user journeys.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/mizusawa-dev/clique/api/rest"
	"github.com/mizusawa-dev/clique/api/sse"
	"github.com/mizusawa-dev/clique/audit"
	"github.com/mizusawa-dev/clique/cache"
	"github.com/mizusawa-dev/clique/config"
	"github.com/mizusawa-dev/clique/fanout"
	"github.com/mizusawa-dev/clique/feed"
	mw "github.com/mizusawa-dev/clique/middleware"
	"github.com/mizusawa-dev/clique/social"
	"github.com/mizusawa-dev/clique/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type env struct {
	router *gin.Engine
	db     *gorm.DB
	pubsub cache.PubSub
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	sec := config.SecurityConfig{JWTSecret: "integration-secret", JWTTTLH: time.Hour}
	feedCfg := config.FeedConfig{DefaultLimit: 20, MaxLimit: 100, UnreadCacheTTL: 5 * time.Minute}

	fan := fanout.New(ps, logger)
	feedSvc := feed.NewService(db, c, fan, logger, feedCfg.UnreadCacheTTL)
	socialSvc := social.NewService(db, c, fan, logger)
	auditSvc := audit.New(db, logger)
	t.Cleanup(func() { auditSvc.Stop(context.Background()) })

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(1000), 2000))

	api := r.Group("/api")
	private := r.Group("/api")
	private.Use(mw.Auth(sec, c))

	apirest.NewAuthHandler(db, c, sec).Register(api, private)
	apirest.NewNotificationHandler(feedSvc, socialSvc, auditSvc, feedCfg).Register(private)
	apirest.NewFriendHandler(feedSvc, socialSvc, auditSvc, feedCfg).Register(private)
	apirest.NewCommunityHandler(feedSvc, socialSvc, auditSvc, feedCfg).Register(private)

	r.GET("/sse", sse.NewHandler(db, ps, c, sec, logger).ServeSSE)

	return &env{router: r, db: db, pubsub: ps}
}

func (e *env) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
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
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) signup(t *testing.T, username string) (string, string) {
	t.Helper()
	w := e.do(t, "POST", "/api/auth/signup", "", map[string]string{
		"username": username,
		"password": "password-123",
	})
	require.Equal(t, 201, w.Code, w.Body.String())

	w = e.do(t, "POST", "/api/auth/login", "", map[string]string{
		"username": username,
		"password": "password-123",
	})
	require.Equal(t, 200, w.Code, w.Body.String())

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

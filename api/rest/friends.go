package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mizusawa-dev/clique/audit"
	"github.com/mizusawa-dev/clique/config"
	"github.com/mizusawa-dev/clique/feed"
	mw "github.com/mizusawa-dev/clique/middleware"
	"github.com/mizusawa-dev/clique/social"
)

// FriendHandler handles the friends list and friend-request REST endpoints.
type FriendHandler struct {
	feed   *feed.Service
	social *social.Service
	audit  *audit.Service
	cfg    config.FeedConfig
}

// NewFriendHandler creates a new FriendHandler.
func NewFriendHandler(f *feed.Service, s *social.Service, a *audit.Service, cfg config.FeedConfig) *FriendHandler {
	return &FriendHandler{feed: f, social: s, audit: a, cfg: cfg}
}

// Register mounts the friend routes on the authenticated group.
func (h *FriendHandler) Register(private *gin.RouterGroup) {
	private.GET("/friends", h.List)
	private.POST("/friends/requests", h.SendRequest)
}

// List handles GET /api/friends?cursor=&limit=.
func (h *FriendHandler) List(c *gin.Context) {
	userID := mw.GetUserID(c)
	limit, ok := pageLimit(c, h.cfg)
	if !ok {
		return
	}

	page, err := h.feed.ListFriends(c.Request.Context(), userID, c.Query("cursor"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type friendRequestBody struct {
	FriendID string `json:"friend_id" binding:"required,uuid"`
}

// SendRequest handles POST /api/friends/requests.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	userID := mw.GetUserID(c)
	var req friendRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	notif, err := h.social.SendFriendRequest(c.Request.Context(), userID, req.FriendID)

	entry := audit.Entry{
		TraceID:    mw.GetTraceID(c),
		UserID:     &userID,
		Action:     "friend.request",
		TargetID:   req.FriendID,
		Request:    req,
		IP:         c.ClientIP(),
		DurationMs: int(time.Since(start).Milliseconds()),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	h.audit.Log(entry)

	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"notification": notif})
}

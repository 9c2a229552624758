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

// NotificationHandler handles the notification feed and friend-request
// resolution REST endpoints.
type NotificationHandler struct {
	feed   *feed.Service
	social *social.Service
	audit  *audit.Service
	cfg    config.FeedConfig
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(f *feed.Service, s *social.Service, a *audit.Service, cfg config.FeedConfig) *NotificationHandler {
	return &NotificationHandler{feed: f, social: s, audit: a, cfg: cfg}
}

// Register mounts the notification routes on the authenticated group.
func (h *NotificationHandler) Register(private *gin.RouterGroup) {
	private.GET("/notifications", h.List)
	private.GET("/notifications/unread_count", h.UnreadCount)
	private.POST("/notifications/read", h.BulkRead)
	private.POST("/notifications/:id/resolve", h.ResolveFriendRequest)
}

// List handles GET /api/notifications?cursor=&limit=.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := mw.GetUserID(c)
	limit, ok := pageLimit(c, h.cfg)
	if !ok {
		return
	}

	page, err := h.feed.ListNotifications(c.Request.Context(), userID, c.Query("cursor"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// UnreadCount handles GET /api/notifications/unread_count.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID := mw.GetUserID(c)
	n, err := h.feed.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": n})
}

type bulkReadRequest struct {
	// Start is the newer bound, End the older one, both inclusive instants.
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
	Mode  string `json:"mode"`
}

// BulkRead handles POST /api/notifications/read.
func (h *NotificationHandler) BulkRead(c *gin.Context) {
	userID := mw.GetUserID(c)
	var req bulkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mode, ok := feed.ParseReadMode(req.Mode)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mode"})
		return
	}
	start, err := time.Parse(time.RFC3339Nano, req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start instant"})
		return
	}
	end, err := time.Parse(time.RFC3339Nano, req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end instant"})
		return
	}

	items, err := h.feed.BulkMarkRead(c.Request.Context(), userID, start, end, mode)
	if err != nil {
		writeError(c, err)
		return
	}
	if mode == feed.ReadSilent {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

type resolveRequest struct {
	Action string `json:"action" binding:"required"`
}

// ResolveFriendRequest handles POST /api/notifications/:id/resolve.
func (h *NotificationHandler) ResolveFriendRequest(c *gin.Context) {
	userID := mw.GetUserID(c)
	notificationID := c.Param("id")

	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	action, ok := social.ParseAction(req.Action)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action"})
		return
	}

	start := time.Now()
	res, err := h.social.ResolveFriendRequest(c.Request.Context(), userID, notificationID, action)

	entry := audit.Entry{
		TraceID:    mw.GetTraceID(c),
		UserID:     &userID,
		Action:     "friend.resolve",
		TargetID:   notificationID,
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
	c.JSON(http.StatusOK, gin.H{
		"notification": res.Notification,
		"friends":      res.Friends,
	})
}

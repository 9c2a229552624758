package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mizusawa-dev/clique/audit"
	"github.com/mizusawa-dev/clique/config"
	"github.com/mizusawa-dev/clique/feed"
	mw "github.com/mizusawa-dev/clique/middleware"
	"github.com/mizusawa-dev/clique/pagination"
	"github.com/mizusawa-dev/clique/social"
	"gorm.io/datatypes"
)

// CommunityHandler handles community lifecycle, search, join requests and the
// message feed REST endpoints.
type CommunityHandler struct {
	feed   *feed.Service
	social *social.Service
	audit  *audit.Service
	cfg    config.FeedConfig
}

// NewCommunityHandler creates a new CommunityHandler.
func NewCommunityHandler(f *feed.Service, s *social.Service, a *audit.Service, cfg config.FeedConfig) *CommunityHandler {
	return &CommunityHandler{feed: f, social: s, audit: a, cfg: cfg}
}

// Register mounts the community routes on the authenticated group.
func (h *CommunityHandler) Register(private *gin.RouterGroup) {
	private.GET("/communities", h.Search)
	private.POST("/communities", h.Create)
	private.DELETE("/communities/:id", h.Delete)
	private.POST("/communities/:id/join", h.RequestJoin)
	private.POST("/communities/requests/:notificationId/resolve", h.ResolveJoin)
	private.GET("/communities/:id/messages", h.ListMessages)
	private.POST("/communities/:id/messages", h.SendMessage)
}

// Search handles GET /api/communities?query=&cursor=&limit=.
func (h *CommunityHandler) Search(c *gin.Context) {
	limit, ok := pageLimit(c, h.cfg)
	if !ok {
		return
	}

	page, err := h.feed.SearchCommunities(c.Request.Context(), c.Query("query"), c.Query("cursor"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type createCommunityRequest struct {
	Name      string `json:"name" binding:"required,min=2,max=64"`
	Bio       string `json:"bio" binding:"max=1024"`
	AvatarURL string `json:"avatar_url" binding:"max=255"`
	BannerURL string `json:"banner_url" binding:"max=255"`
}

// Create handles POST /api/communities.
func (h *CommunityHandler) Create(c *gin.Context) {
	userID := mw.GetUserID(c)
	var req createCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	community, err := h.social.CreateCommunity(c.Request.Context(), userID, req.Name, req.Bio, req.AvatarURL, req.BannerURL)

	entry := audit.Entry{
		TraceID:    mw.GetTraceID(c),
		UserID:     &userID,
		Action:     "community.create",
		Request:    req,
		IP:         c.ClientIP(),
		DurationMs: int(time.Since(start).Milliseconds()),
	}
	if err != nil {
		entry.Error = err.Error()
	} else {
		entry.TargetID = community.ID
	}
	h.audit.Log(entry)

	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"community": community})
}

// Delete handles DELETE /api/communities/:id.
func (h *CommunityHandler) Delete(c *gin.Context) {
	userID := mw.GetUserID(c)
	communityID := c.Param("id")

	start := time.Now()
	err := h.social.DeleteCommunity(c.Request.Context(), userID, communityID)

	entry := audit.Entry{
		TraceID:    mw.GetTraceID(c),
		UserID:     &userID,
		Action:     "community.delete",
		TargetID:   communityID,
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
	c.Status(http.StatusNoContent)
}

// RequestJoin handles POST /api/communities/:id/join.
func (h *CommunityHandler) RequestJoin(c *gin.Context) {
	userID := mw.GetUserID(c)
	communityID := c.Param("id")

	start := time.Now()
	notif, err := h.social.RequestJoin(c.Request.Context(), userID, communityID)

	entry := audit.Entry{
		TraceID:    mw.GetTraceID(c),
		UserID:     &userID,
		Action:     "community.join",
		TargetID:   communityID,
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

type resolveJoinRequest struct {
	ParticipantID string `json:"participant_id" binding:"required,uuid"`
	Action        string `json:"action" binding:"required"`
}

// ResolveJoin handles POST /api/communities/requests/:notificationId/resolve.
func (h *CommunityHandler) ResolveJoin(c *gin.Context) {
	userID := mw.GetUserID(c)
	notificationID := c.Param("notificationId")

	var req resolveJoinRequest
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
	res, err := h.social.ResolveCommunityRequest(c.Request.Context(), userID, notificationID, req.ParticipantID, action)

	entry := audit.Entry{
		TraceID:    mw.GetTraceID(c),
		UserID:     &userID,
		Action:     "community.resolve",
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
		"participant":  res.Participant,
	})
}

// ListMessages handles GET /api/communities/:id/messages?cursor=&direction=&limit=.
func (h *CommunityHandler) ListMessages(c *gin.Context) {
	userID := mw.GetUserID(c)
	communityID := c.Param("id")

	dir, ok := pagination.ParseDirection(c.Query("direction"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid direction"})
		return
	}
	limit, ok := pageLimit(c, h.cfg)
	if !ok {
		return
	}

	page, err := h.feed.ListMessages(c.Request.Context(), userID, communityID, c.Query("cursor"), dir, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type sendMessageRequest struct {
	Content     string         `json:"content" binding:"required,max=4096"`
	Attachments datatypes.JSON `json:"attachments"`
}

// SendMessage handles POST /api/communities/:id/messages.
func (h *CommunityHandler) SendMessage(c *gin.Context) {
	userID := mw.GetUserID(c)
	communityID := c.Param("id")

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.feed.SendMessage(c.Request.Context(), userID, communityID, req.Content, req.Attachments)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

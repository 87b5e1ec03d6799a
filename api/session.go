package api

import (
	"context"
	"log"
	"net/http"

	"github.com/Domenick1991/railseat/internal/service/session"
	"github.com/gin-gonic/gin"
)

type ActivityTracker interface {
	Touch(ctx context.Context, userID string) error
}

// TrackActivity marks the resolved user as active. It must run after
// RequireUser. A failed update is logged and the request goes on.
func TrackActivity(tracker ActivityTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := currentUser(c); user != nil {
			if err := tracker.Touch(c.Request.Context(), user.ID); err != nil {
				log.Printf("api: touch activity of %s: %v", user.ID, err)
			}
		}
		c.Next()
	}
}

type SessionHandler struct {
	service session.UseCase
}

type pollResponse struct {
	Status    string `json:"status"`
	NextCheck int64  `json:"next_check"`
}

func NewSessionHandler(service session.UseCase) *SessionHandler {
	return &SessionHandler{service: service}
}

func (h *SessionHandler) Register(router *gin.RouterGroup, auth gin.HandlerFunc) {
	router.GET("/session", auth, h.session)
	router.GET("/waiting_status", auth, h.waitingStatus)
}

func (h *SessionHandler) session(c *gin.Context) {
	result := h.service.Check(c.Request.Context(), currentUser(c))
	if result.Status == session.StatusExpired {
		c.SetCookie(UserCookie, "", -1, "/", "", false, true)
	}
	c.JSON(http.StatusOK, newPollResponse(result))
}

func (h *SessionHandler) waitingStatus(c *gin.Context) {
	result, err := h.service.WaitingStatus(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPollResponse(result))
}

func newPollResponse(r session.Result) pollResponse {
	return pollResponse{Status: string(r.Status), NextCheck: r.NextCheck.Milliseconds()}
}

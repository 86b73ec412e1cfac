package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/haflows/tasknotify/internal/auth"
	"github.com/haflows/tasknotify/internal/service"

	"github.com/gin-gonic/gin"
)

// DigestHandler triggers digest runs: single (session-bound) or batch
// (cron-driven, elevated).
type DigestHandler struct {
	svc        *service.DigestService
	sessions   *auth.Store
	cronSecret string
}

func NewDigestHandler(svc *service.DigestService, sessions *auth.Store, cronSecret string) *DigestHandler {
	return &DigestHandler{svc: svc, sessions: sessions, cronSecret: cronSecret}
}

// Run godoc
// @Summary      Run the digest pipeline
// @Description  mode=batch processes every user with pending tasks; otherwise runs for the authenticated user only. debug=1 opts a single run into the configured debug LINE recipient.
// @Tags         digest
// @Produce      json
// @Param        mode   query  string  false  "batch or single"
// @Param        debug  query  string  false  "1 to allow the debug LINE recipient (single mode only)"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /digest [post]
func (h *DigestHandler) Run(c *gin.Context) {
	if c.Query("mode") == "batch" {
		h.runBatch(c)
		return
	}
	h.runSingle(c)
}

// cronSecretOK enforces the X-Cron-Secret header on server-to-server
// endpoints. When no secret is configured the check is a no-op. Writes
// the 401 itself so callers just return on false.
func cronSecretOK(c *gin.Context, secret string) bool {
	if secret == "" {
		return true
	}
	given := c.GetHeader("X-Cron-Secret")
	if subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid cron secret"})
		return false
	}
	return true
}

func (h *DigestHandler) runBatch(c *gin.Context) {
	if !cronSecretOK(c, h.cronSecret) {
		return
	}
	results, err := h.svc.RunBatch(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Batch processing completed",
		"results": results,
	})
}

func (h *DigestHandler) runSingle(c *gin.Context) {
	// Single mode requires a session; the identity (including email)
	// comes from it, never from a separate lookup.
	sessionID, err := c.Cookie(sessionCookieName)
	if err != nil || sessionID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	id, ok := h.sessions.Get(c.Request.Context(), sessionID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	debug := c.Query("debug") == "1"
	result := h.svc.RunSingle(c.Request.Context(), id.UserID, id.Email, id.Name, debug)
	if result.Status == service.DigestError {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error, "data": result})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Digest sent successfully",
		"data":    result,
	})
}

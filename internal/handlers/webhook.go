package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/haflows/tasknotify/internal/webhook"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const lineSignatureHeader = "X-Line-Signature"

// WebhookHandler receives LINE platform callbacks. Signature
// verification runs on the raw body before any JSON decoding.
type WebhookHandler struct {
	ingestor      *webhook.Ingestor
	channelSecret string
	logger        *zap.Logger
}

func NewWebhookHandler(ingestor *webhook.Ingestor, channelSecret string, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{ingestor: ingestor, channelSecret: channelSecret, logger: logger}
}

// Handle godoc
// @Summary      LINE webhook endpoint
// @Tags         webhook
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /webhook/line [post]
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	signature := c.GetHeader(lineSignatureHeader)
	if h.channelSecret == "" || signature == "" {
		h.logger.Error("missing channel secret or signature")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Configuration Error"})
		return
	}
	if !webhook.VerifySignature(body, signature, h.channelSecret) {
		h.logger.Warn("invalid webhook signature")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Signature"})
		return
	}

	var payload webhook.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	// Per-event failures are logged inside Process; the platform always
	// gets a 200 for an authenticated batch.
	h.ingestor.Process(c.Request.Context(), payload.Events)

	c.JSON(http.StatusOK, gin.H{"message": "OK"})
}

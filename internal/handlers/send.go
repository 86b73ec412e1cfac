package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/haflows/tasknotify/internal/dto"
	"github.com/haflows/tasknotify/internal/notify"

	"github.com/gin-gonic/gin"
)

const defaultTestMessage = "Test message from Task Notifier"

// SendTestHandler exposes direct channel sends for delivery debugging,
// bypassing the digest pipeline. Guarded by the cron secret so the
// endpoints cannot serve as an open relay.
type SendTestHandler struct {
	email      notify.EmailSender
	chat       notify.ChatSender
	lineUserID string
	cronSecret string
}

func NewSendTestHandler(email notify.EmailSender, chat notify.ChatSender, lineUserID, cronSecret string) *SendTestHandler {
	return &SendTestHandler{email: email, chat: chat, lineUserID: lineUserID, cronSecret: cronSecret}
}

// SendEmail godoc
// @Summary      Send a raw test email
// @Tags         debug
// @Accept       json
// @Produce      json
// @Param        X-Cron-Secret  header  string  false  "Shared secret"
// @Param        body  body  dto.SendEmailRequest  true  "Email content"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /send-email [post]
func (h *SendTestHandler) SendEmail(c *gin.Context) {
	if !cronSecretOK(c, h.cronSecret) {
		return
	}
	var req dto.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.email.Send(c.Request.Context(), req.To, req.Subject, req.HTML); err != nil {
		if errors.Is(err, notify.ErrEmailNotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Resend API Key is not configured"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "sent"})
}

// SendLine godoc
// @Summary      Send a test LINE push to the configured debug recipient
// @Tags         debug
// @Accept       json
// @Produce      json
// @Param        X-Cron-Secret  header  string  false  "Shared secret"
// @Param        body  body  dto.SendLineRequest  true  "Message text (optional)"
// @Success      200  {object}  map[string]bool
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /send-line [post]
func (h *SendTestHandler) SendLine(c *gin.Context) {
	if !cronSecretOK(c, h.cronSecret) {
		return
	}
	// Body is optional; an absent one means the default test message.
	var req dto.SendLineRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.lineUserID == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "LINE credentials not configured"})
		return
	}
	text := req.Message
	if text == "" {
		text = defaultTestMessage
	}
	if err := h.chat.Push(c.Request.Context(), h.lineUserID, text); err != nil {
		if errors.Is(err, notify.ErrLineNotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "LINE credentials not configured"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

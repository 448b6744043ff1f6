package handlers

import (
	"net/http"

	"clinicdesk/models"
	"clinicdesk/services/notification"
	"clinicdesk/utils"

	"github.com/gin-gonic/gin"
)

// NotificationHandler exposes the outbound channels. Either may be nil when
// its integration is not configured.
type NotificationHandler struct {
	Mailer   notification.Mailer
	WhatsApp notification.WhatsApp
}

func NewNotificationHandler(mailer notification.Mailer, wa notification.WhatsApp) *NotificationHandler {
	return &NotificationHandler{Mailer: mailer, WhatsApp: wa}
}

func (h *NotificationHandler) whatsapp(c *gin.Context) (notification.WhatsApp, bool) {
	if h.WhatsApp == nil {
		utils.RespondError(c, "WhatsApp unavailable", &utils.UnavailableError{Service: "whatsapp"})
		return nil, false
	}
	return h.WhatsApp, true
}

// SendEmailHandler handles POST /api/email/send.
func (h *NotificationHandler) SendEmailHandler(c *gin.Context) {
	if h.Mailer == nil {
		utils.RespondError(c, "Email unavailable", &utils.UnavailableError{Service: "email"})
		return
	}
	var mail models.Mail
	if !bindJSON(c, &mail) {
		return
	}
	if err := h.Mailer.Send(c.Request.Context(), mail); err != nil {
		utils.RespondError(c, "Failed to send email", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email sent"})
}

// ChatsHandler handles GET /api/whatsapp/chats, optionally filtered by ?name=.
func (h *NotificationHandler) ChatsHandler(c *gin.Context) {
	wa, ok := h.whatsapp(c)
	if !ok {
		return
	}
	var (
		raw []byte
		err error
	)
	if name := c.Query("name"); name != "" {
		raw, err = wa.FilterChats(c.Request.Context(), name)
	} else {
		raw, err = wa.Chats(c.Request.Context())
	}
	if err != nil {
		utils.RespondError(c, "Failed to fetch chats", err)
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

// MessagesHandler handles GET /api/whatsapp/chats/:chatId/messages.
func (h *NotificationHandler) MessagesHandler(c *gin.Context) {
	wa, ok := h.whatsapp(c)
	if !ok {
		return
	}
	messages, err := wa.Messages(c.Request.Context(), c.Param("chatId"))
	if err != nil {
		utils.RespondError(c, "Failed to fetch messages", err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// MediaHandler handles GET /api/whatsapp/media/:messageId.
func (h *NotificationHandler) MediaHandler(c *gin.Context) {
	wa, ok := h.whatsapp(c)
	if !ok {
		return
	}
	media, err := wa.Media(c.Request.Context(), c.Param("messageId"))
	if err != nil {
		utils.RespondError(c, "Failed to fetch media", err)
		return
	}
	c.JSON(http.StatusOK, media)
}

// SendWhatsAppHandler handles POST /api/whatsapp/send.
func (h *NotificationHandler) SendWhatsAppHandler(c *gin.Context) {
	wa, ok := h.whatsapp(c)
	if !ok {
		return
	}
	var msg models.WhatsAppMessage
	if !bindJSON(c, &msg) {
		return
	}
	raw, err := wa.Send(c.Request.Context(), msg)
	if err != nil {
		utils.RespondError(c, "Failed to send message", err)
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

// SendDocumentHandler handles POST /api/whatsapp/document.
func (h *NotificationHandler) SendDocumentHandler(c *gin.Context) {
	wa, ok := h.whatsapp(c)
	if !ok {
		return
	}
	var doc models.WhatsAppDocument
	if !bindJSON(c, &doc) {
		return
	}
	raw, err := wa.SendDocument(c.Request.Context(), doc)
	if err != nil {
		utils.RespondError(c, "Failed to send document", err)
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

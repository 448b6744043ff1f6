package handlers

import (
	"io"
	"net/http"

	"clinicdesk/models"
	"clinicdesk/services/payment"
	"clinicdesk/utils"

	"github.com/gin-gonic/gin"
)

// maxWebhookBody bounds the gateway callback payload.
const maxWebhookBody = 64 << 10

type PaymentHandler struct {
	Service payment.PaymentService
}

func NewPaymentHandler(svc payment.PaymentService) *PaymentHandler {
	return &PaymentHandler{Service: svc}
}

// CreateInvoiceHandler handles POST /api/applications/:id/invoices.
func (h *PaymentHandler) CreateInvoiceHandler(c *gin.Context) {
	var req models.InvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.Service.CreateInvoice(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.RespondError(c, "Failed to create invoice", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// ListPaymentsHandler handles GET /api/applications/:id/payments.
func (h *PaymentHandler) ListPaymentsHandler(c *gin.Context) {
	payments, err := h.Service.ListByApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, "Failed to fetch payments", err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// CreateLinkHandler handles POST /api/payments/link.
func (h *PaymentHandler) CreateLinkHandler(c *gin.Context) {
	var req models.PaymentLinkRequest
	if !bindJSON(c, &req) {
		return
	}
	link, err := h.Service.CreateLink(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, "Failed to create payment link", err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

func (h *PaymentHandler) GetPaymentHandler(c *gin.Context) {
	p, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, "Failed to fetch payment", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateStatusHandler handles PATCH /api/payments/:id/status.
func (h *PaymentHandler) UpdateStatusHandler(c *gin.Context) {
	var body struct {
		PaymentStatus string `json:"paymentStatus" binding:"required"`
	}
	if !bindJSON(c, &body) {
		return
	}
	p, err := h.Service.UpdateStatus(c.Request.Context(), c.Param("id"), body.PaymentStatus)
	if err != nil {
		utils.RespondError(c, "Failed to update payment", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// SendLinkHandler handles POST /api/payments/:id/send.
func (h *PaymentHandler) SendLinkHandler(c *gin.Context) {
	if err := h.Service.SendLink(c.Request.Context(), c.Param("id")); err != nil {
		utils.RespondError(c, "Failed to send payment link", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment link sent"})
}

// WebhookHandler handles POST /api/payments/webhook. The raw body is needed
// for signature verification, so it is read before any binding.
func (h *PaymentHandler) WebhookHandler(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Unreadable body", err.Error())
		return
	}
	if err := h.Service.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		utils.RespondError(c, "Webhook rejected", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

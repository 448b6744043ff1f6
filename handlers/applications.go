package handlers

import (
	"net/http"
	"strings"

	"clinicdesk/models"
	"clinicdesk/services/application"
	"clinicdesk/utils"

	"github.com/gin-gonic/gin"
)

// ApplicationHandler serves applications with their comments and documents.
type ApplicationHandler struct {
	Service application.ApplicationService
}

func NewApplicationHandler(svc application.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{Service: svc}
}

// CreateApplicationHandler handles POST /api/applications.
func (h *ApplicationHandler) CreateApplicationHandler(c *gin.Context) {
	var in models.ApplicationInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := h.Service.Create(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, "Failed to create application", err)
		return
	}
	withWarning(c, http.StatusCreated, gin.H{"application": out.Application}, out.Sync)
}

// GetApplicationHandler handles GET /api/applications/:id. The id may be the
// internal id or the application number.
func (h *ApplicationHandler) GetApplicationHandler(c *gin.Context) {
	view, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, "Failed to fetch application", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListApplicationsHandler handles GET /api/applications.
func (h *ApplicationHandler) ListApplicationsHandler(c *gin.Context) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 10)
	if !ok {
		return
	}
	result, err := h.Service.List(c.Request.Context(), models.ApplicationFilter{
		Page:              page,
		Limit:             limit,
		Search:            c.Query("search"),
		AppointmentStatus: c.Query("appointmentStatus"),
		PaymentStatus:     c.Query("paymentStatus"),
		DoctorID:          c.Query("doctor"),
		RecordDate:        c.Query("recordDate"),
	})
	if err != nil {
		utils.RespondError(c, "Failed to list applications", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateApplicationHandler handles PUT /api/applications/:id.
func (h *ApplicationHandler) UpdateApplicationHandler(c *gin.Context) {
	var patch models.ApplicationPatch
	if !bindJSON(c, &patch) {
		return
	}
	out, err := h.Service.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		utils.RespondError(c, "Failed to update application", err)
		return
	}
	withWarning(c, http.StatusOK, gin.H{"application": out.Application}, out.Sync)
}

// DeleteApplicationHandler handles DELETE /api/applications/:id.
func (h *ApplicationHandler) DeleteApplicationHandler(c *gin.Context) {
	sync, err := h.Service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, "Failed to delete application", err)
		return
	}
	withWarning(c, http.StatusOK, gin.H{"message": "Application deleted"}, sync)
}

// PatientHistoryHandler handles GET /api/patients/:id/applications.
func (h *ApplicationHandler) PatientHistoryHandler(c *gin.Context) {
	history, err := h.Service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, "Failed to fetch patient history", err)
		return
	}
	c.JSON(http.StatusOK, history)
}

type commentBody struct {
	Text string `json:"text" binding:"required"`
}

// AddCommentHandler handles POST /api/applications/:id/comments.
func (h *ApplicationHandler) AddCommentHandler(c *gin.Context) {
	var body commentBody
	if !bindJSON(c, &body) {
		return
	}
	comment, err := h.Service.AddComment(c.Request.Context(), c.Param("id"), body.Text)
	if err != nil {
		utils.RespondError(c, "Failed to add comment", err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// ListCommentsHandler handles GET /api/applications/:id/comments.
func (h *ApplicationHandler) ListCommentsHandler(c *gin.Context) {
	comments, err := h.Service.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, "Failed to fetch comments", err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// UpdateCommentHandler handles PUT /api/comments/:commentId.
func (h *ApplicationHandler) UpdateCommentHandler(c *gin.Context) {
	var body commentBody
	if !bindJSON(c, &body) {
		return
	}
	comment, err := h.Service.UpdateComment(c.Request.Context(), c.Param("commentId"), body.Text)
	if err != nil {
		utils.RespondError(c, "Failed to update comment", err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DeleteCommentHandler handles DELETE /api/comments/:commentId.
func (h *ApplicationHandler) DeleteCommentHandler(c *gin.Context) {
	if err := h.Service.DeleteComment(c.Request.Context(), c.Param("commentId")); err != nil {
		utils.RespondError(c, "Failed to delete comment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}

// UploadDocumentHandler handles POST /api/applications/:id/documents with a
// multipart "file" field.
func (h *ApplicationHandler) UploadDocumentHandler(c *gin.Context) {
	fileHeader, file, ok := openUpload(c)
	if !ok {
		return
	}
	defer file.Close()

	media, err := h.Service.UploadDocument(c.Request.Context(), c.Param("id"), application.Upload{
		Filename:    fileHeader.Filename,
		ContentType: contentType(fileHeader),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		utils.RespondError(c, "Failed to upload document", err)
		return
	}
	c.JSON(http.StatusCreated, media)
}

// AddDocumentLinksHandler handles POST /api/applications/:id/documents/links.
func (h *ApplicationHandler) AddDocumentLinksHandler(c *gin.Context) {
	var body struct {
		Documents []application.DocumentLink `json:"documents" binding:"required,min=1,dive"`
	}
	if !bindJSON(c, &body) {
		return
	}
	media, err := h.Service.AddDocumentLinks(c.Request.Context(), c.Param("id"), body.Documents)
	if err != nil {
		utils.RespondError(c, "Failed to add documents", err)
		return
	}
	c.JSON(http.StatusCreated, media)
}

// ListDocumentsHandler handles GET /api/applications/:id/documents.
func (h *ApplicationHandler) ListDocumentsHandler(c *gin.Context) {
	docs, err := h.Service.ListDocuments(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, "Failed to fetch documents", err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// GetDocumentHandler handles GET /api/documents/:mediaId by redirecting to
// the file.
func (h *ApplicationHandler) GetDocumentHandler(c *gin.Context) {
	url, err := h.Service.DocumentURL(c.Request.Context(), c.Param("mediaId"))
	if err != nil {
		utils.RespondError(c, "Failed to resolve document", err)
		return
	}
	if strings.EqualFold(c.Query("redirect"), "false") {
		c.JSON(http.StatusOK, gin.H{"url": url})
		return
	}
	c.Redirect(http.StatusFound, url)
}

// DeleteDocumentHandler handles DELETE /api/applications/:id/documents/:mediaId.
func (h *ApplicationHandler) DeleteDocumentHandler(c *gin.Context) {
	if err := h.Service.DeleteDocument(c.Request.Context(), c.Param("id"), c.Param("mediaId")); err != nil {
		utils.RespondError(c, "Failed to delete document", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
}

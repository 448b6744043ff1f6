package handlers

import (
	"mime/multipart"
	"net/http"

	"clinicdesk/utils"

	"github.com/gin-gonic/gin"
)

// maxUploadSize caps a single attachment.
const maxUploadSize = 25 << 20

// openUpload reads the multipart "file" field. The caller closes the file.
func openUpload(c *gin.Context) (*multipart.FileHeader, multipart.File, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "File not provided", err.Error())
		return nil, nil, false
	}
	if fileHeader.Size > maxUploadSize {
		utils.JSONError(c, http.StatusRequestEntityTooLarge, "File too large", "attachments are limited to 25 MB")
		return nil, nil, false
	}
	file, err := fileHeader.Open()
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Unreadable file", err.Error())
		return nil, nil, false
	}
	return fileHeader, file, true
}

func contentType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

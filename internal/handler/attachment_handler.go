package handler

import (
	"net/http"

	"sensasi-chat/internal/services"
	"sensasi-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type AttachmentHandler struct {
	service *services.AttachmentService
}

func NewAttachmentHandler(service *services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{service: service}
}

// Presign issues an upload slot for a message image. The returned key goes
// into the send request once the client has PUT the file.
func (h *AttachmentHandler) Presign(c *gin.Context) {
	viewerID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	var req httpdto.PresignImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	res, err := h.service.PresignImageUpload(c.Request.Context(), services.PresignImageInput{
		UploaderID:  viewerID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		FileSize:    req.FileSize,
	})
	if err != nil {
		c.JSON(services.HTTPStatus(err), httpdto.NewErrorResponse(err.Error(), services.ErrorCode(err)))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.PresignImageResponse{
		Key:       res.Key,
		UploadURL: res.UploadURL,
		Headers:   res.Headers,
		FileURL:   res.FileURL,
	}))
}

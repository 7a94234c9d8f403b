package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cleanstreet-be/utils"
)

type UploadController struct {
	signer *utils.ImageKitSigner
}

func NewUploadController(signer *utils.ImageKitSigner) *UploadController {
	return &UploadController{signer: signer}
}

// GetUploadAuth handles GET /api/imagekit/auth and /api/upload/auth.
func (h *UploadController) GetUploadAuth(c *gin.Context) {
	if !h.signer.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image uploads are not configured"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, h.signer.Sign())
}

package routes

import (
	"github.com/gin-gonic/gin"

	"cleanstreet-be/controllers"
)

// UploadRoutes exposes the ImageKit signing endpoint under both paths the
// client may call.
func UploadRoutes(api *gin.RouterGroup, d Deps) {
	h := controllers.NewUploadController(d.Signer)
	api.GET("/imagekit/auth", h.GetUploadAuth)
	api.GET("/upload/auth", h.GetUploadAuth)
}

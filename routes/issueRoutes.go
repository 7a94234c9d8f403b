package routes

import (
	"github.com/gin-gonic/gin"

	"cleanstreet-be/controllers"
	"cleanstreet-be/middlewares"
)

// IssueRoutes sets up the issue routes. Reads are public; every write needs
// a token, and creation is also rate limited per user. A single issue read
// also reports the caller's access when a token is sent.
func IssueRoutes(api *gin.RouterGroup, d Deps, auth gin.HandlerFunc) {
	issues := controllers.NewIssueController(d.Issues, d.Logger)
	interactions := controllers.NewInteractionController(d.Interactions, d.Logger)
	limit := middlewares.IssueRateLimiter(d.Redis,
		d.Config.RateLimit.IssuesPerWindow,
		d.Config.RateLimit.Window,
		d.Config.RateLimit.KeyPrefix,
		d.Logger,
	)

	optional := middlewares.OptionalAuth(d.Tokens, d.Config.Auth.CookieName, d.Logger)

	issue := api.Group("/issues")
	{
		issue.GET("", issues.GetAllIssues)
		issue.POST("", auth, limit, issues.CreateIssue)
		issue.GET("/stats", issues.GetStats)
		issue.GET("/my-issues", auth, issues.GetMyIssues)
		issue.GET("/:id", optional, issues.GetIssue)
		issue.PUT("/:id", auth, issues.UpdateIssue)
		issue.DELETE("/:id", auth, issues.DeleteIssue)

		issue.POST("/:id/like", auth, interactions.LikeIssue)
		issue.POST("/:id/dislike", auth, interactions.DislikeIssue)
		issue.GET("/:id/comments", interactions.GetComments)
		issue.POST("/:id/comments", auth, interactions.AddComment)
		issue.DELETE("/:id/comments/:commentId", auth, interactions.DeleteComment)
	}
}

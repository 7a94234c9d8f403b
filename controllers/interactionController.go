package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cleanstreet-be/middlewares"
	"cleanstreet-be/models"
	"cleanstreet-be/services"
)

type InteractionController struct {
	interactions *services.InteractionService
	logger       *slog.Logger
}

func NewInteractionController(interactions *services.InteractionService, logger *slog.Logger) *InteractionController {
	return &InteractionController{interactions: interactions, logger: logger}
}

type reactFunc func(c *gin.Context, r models.Requester, id primitive.ObjectID) (*services.ReactionResult, error)

func (h *InteractionController) react(c *gin.Context, fn reactFunc) {
	id, err := objectIDParam(c, "id", "issue")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	res, err := fn(c, middlewares.RequesterFrom(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// LikeIssue handles POST /api/issues/:id/like
func (h *InteractionController) LikeIssue(c *gin.Context) {
	h.react(c, func(c *gin.Context, r models.Requester, id primitive.ObjectID) (*services.ReactionResult, error) {
		return h.interactions.Like(c.Request.Context(), r, id)
	})
}

// DislikeIssue handles POST /api/issues/:id/dislike
func (h *InteractionController) DislikeIssue(c *gin.Context) {
	h.react(c, func(c *gin.Context, r models.Requester, id primitive.ObjectID) (*services.ReactionResult, error) {
		return h.interactions.Dislike(c.Request.Context(), r, id)
	})
}

// GetComments handles GET /api/issues/:id/comments
func (h *InteractionController) GetComments(c *gin.Context) {
	id, err := objectIDParam(c, "id", "issue")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	comments, err := h.interactions.ListComments(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// AddComment handles POST /api/issues/:id/comments
func (h *InteractionController) AddComment(c *gin.Context) {
	id, err := objectIDParam(c, "id", "issue")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var input struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c)
		return
	}

	comments, err := h.interactions.AddComment(c.Request.Context(), middlewares.RequesterFrom(c), id, input.Text)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comments": comments})
}

// DeleteComment handles DELETE /api/issues/:id/comments/:commentId
func (h *InteractionController) DeleteComment(c *gin.Context) {
	issueID, err := objectIDParam(c, "id", "issue")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	commentID, err := objectIDParam(c, "commentId", "comment")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	comments, err := h.interactions.DeleteComment(c.Request.Context(), middlewares.RequesterFrom(c), issueID, commentID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

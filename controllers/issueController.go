package controllers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cleanstreet-be/middlewares"
	"cleanstreet-be/models"
	"cleanstreet-be/policy"
	"cleanstreet-be/services"
)

type IssueController struct {
	issues *services.IssueService
	logger *slog.Logger
}

func NewIssueController(issues *services.IssueService, logger *slog.Logger) *IssueController {
	return &IssueController{issues: issues, logger: logger}
}

// CreateIssue handles POST /api/issues
func (h *IssueController) CreateIssue(c *gin.Context) {
	var input services.CreateIssueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c)
		return
	}

	issue, err := h.issues.CreateIssue(c.Request.Context(), middlewares.RequesterFrom(c), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, issue)
}

// GetAllIssues handles GET /api/issues with status, issueType, search,
// page and limit (or pageSize) query parameters.
func (h *IssueController) GetAllIssues(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.Query("limit"))
	if size == 0 {
		size, _ = strconv.Atoi(c.Query("pageSize"))
	}

	issueType := c.Query("issueType")
	if issueType == "" {
		issueType = c.Query("type")
	}

	result, err := h.issues.ListIssues(c.Request.Context(), services.ListIssuesInput{
		Status:   c.Query("status"),
		Type:     issueType,
		Search:   c.Query("search"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetIssue handles GET /api/issues/:id
func (h *IssueController) GetIssue(c *gin.Context) {
	id, err := objectIDParam(c, "id", "issue")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	issue, err := h.issues.GetIssue(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	issue.Normalize()

	res := issueResponse{Issue: issue}
	if r := middlewares.RequesterFrom(c); r.IsAuthenticated() {
		access := policy.Describe(r, issue)
		res.Access = &access
	}
	c.JSON(http.StatusOK, res)
}

// issueResponse is an issue plus, for a signed-in caller, what they may do
// with it.
type issueResponse struct {
	*models.Issue
	Access *policy.Access `json:"access,omitempty"`
}

// GetMyIssues handles GET /api/issues/my-issues
func (h *IssueController) GetMyIssues(c *gin.Context) {
	issues, err := h.issues.GetMyIssues(c.Request.Context(), middlewares.RequesterFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

// GetStats handles GET /api/issues/stats
func (h *IssueController) GetStats(c *gin.Context) {
	stats, err := h.issues.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UpdateIssue handles PUT /api/issues/:id. The body is a partial object
// keyed by wire field names.
func (h *IssueController) UpdateIssue(c *gin.Context) {
	id, err := objectIDParam(c, "id", "issue")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var patch services.IssuePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		bindError(c)
		return
	}

	issue, err := h.issues.UpdateIssue(c.Request.Context(), middlewares.RequesterFrom(c), id, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	issue.Normalize()
	c.JSON(http.StatusOK, issue)
}

// DeleteIssue handles DELETE /api/issues/:id
func (h *IssueController) DeleteIssue(c *gin.Context) {
	id, err := objectIDParam(c, "id", "issue")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.issues.DeleteIssue(c.Request.Context(), middlewares.RequesterFrom(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}

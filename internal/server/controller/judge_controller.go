// Package controller exposes the central judge over HTTP.
package controller

import (
	"strings"

	"shunyata/internal/judge/model"
	"shunyata/internal/judge/service"
	"shunyata/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// JudgeController handles the judge server's API routes.
type JudgeController struct {
	svc *service.JudgeService
}

// NewJudgeController creates the controller.
func NewJudgeController(svc *service.JudgeService) *JudgeController {
	return &JudgeController{svc: svc}
}

// RegisterRoutes mounts the API under /api.
func (jc *JudgeController) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.POST("/submit", jc.Submit)
		api.GET("/problems", jc.Problems)
		api.GET("/scoreboard", jc.Scoreboard)
	}
}

// Submit accepts one submission and blocks until a terminal verdict.
func (jc *JudgeController) Submit(c *gin.Context) {
	var sub model.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if msg, ok := validate(sub); !ok {
		response.BadRequest(c, msg)
		return
	}
	resp := jc.svc.Judge(c.Request.Context(), sub)
	response.Success(c, resp)
}

// Problems returns the full problem set.
func (jc *JudgeController) Problems(c *gin.Context) {
	response.Success(c, jc.svc.Problems())
}

// Scoreboard returns the current standings.
func (jc *JudgeController) Scoreboard(c *gin.Context) {
	response.Success(c, jc.svc.Scoreboard(c.Request.Context()))
}

// validate rejects submissions with missing fields before any judging
// work starts.
func validate(sub model.Submission) (string, bool) {
	switch {
	case strings.TrimSpace(sub.ParticipantName) == "":
		return "participant_name is required", false
	case strings.TrimSpace(sub.ProblemID) == "":
		return "problem_id is required", false
	case strings.TrimSpace(sub.Language) == "":
		return "language is required", false
	case strings.TrimSpace(sub.Code) == "":
		return "code is required", false
	}
	return "", true
}

// Package controller exposes the participant agent over HTTP.
package controller

import (
	"shunyata/internal/agent/jobs"
	"shunyata/internal/agent/lockdown"
	"shunyata/internal/agent/service"
	"shunyata/internal/judge/model"
	appErr "shunyata/pkg/errors"
	"shunyata/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// AgentController handles the agent's API routes.
type AgentController struct {
	svc      *service.AgentService
	tracker  *jobs.Tracker
	lockdown *lockdown.Controller
}

// NewAgentController creates the controller.
func NewAgentController(svc *service.AgentService, tracker *jobs.Tracker, ld *lockdown.Controller) *AgentController {
	return &AgentController{svc: svc, tracker: tracker, lockdown: ld}
}

// RegisterRoutes mounts all agent routes at the root.
func (ac *AgentController) RegisterRoutes(r *gin.Engine) {
	r.GET("/status", ac.Status)
	r.GET("/problems", ac.Problems)
	r.POST("/submit", ac.Submit)
	r.GET("/scoreboard", ac.Scoreboard)

	r.POST("/run-async", ac.RunAsync)
	r.GET("/job-status/:id", ac.JobStatus)
	r.POST("/job-cancel/:id", ac.JobCancel)
	r.GET("/jobs", ac.Jobs)

	r.POST("/lockdown", ac.Lockdown)
	r.GET("/lockdown-status", ac.LockdownStatus)
	r.POST("/lockdown-emergency", ac.LockdownEmergency)
}

// Status reports agent liveness and the lockdown state.
func (ac *AgentController) Status(c *gin.Context) {
	response.Success(c, gin.H{
		"status":   "ok",
		"lockdown": ac.lockdown.Status(),
		"jobs":     len(ac.tracker.List()),
	})
}

// Problems serves the (possibly cached) problem set from the server.
func (ac *AgentController) Problems(c *gin.Context) {
	set, err := ac.svc.Problems(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, set)
}

// Submit forwards a submission to the central judge.
func (ac *AgentController) Submit(c *gin.Context) {
	var sub model.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	resp, err := ac.svc.Submit(c.Request.Context(), sub)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// Scoreboard proxies the standings from the central judge.
func (ac *AgentController) Scoreboard(c *gin.Context) {
	board, err := ac.svc.Scoreboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, board)
}

// RunAsync starts a local test run and returns its job id immediately.
func (ac *AgentController) RunAsync(c *gin.Context) {
	var req jobs.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.ProblemID == "" || req.Language == "" || req.Code == "" {
		response.ErrorWithCode(c, appErr.RequiredFieldEmpty, "problem_id, language and code are required")
		return
	}
	id := ac.tracker.Submit(req)
	response.Accepted(c, gin.H{"job_id": id})
}

// JobStatus returns one job's current state.
func (ac *AgentController) JobStatus(c *gin.Context) {
	status, err := ac.tracker.Poll(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

// JobCancel marks a job cancelled; the run stops at its next checkpoint.
func (ac *AgentController) JobCancel(c *gin.Context) {
	if err := ac.tracker.Cancel(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"job_id": c.Param("id"), "cancelled": true})
}

// Jobs lists all tracked jobs, newest first.
func (ac *AgentController) Jobs(c *gin.Context) {
	response.Success(c, ac.tracker.List())
}

type lockdownRequest struct {
	Action string `json:"action"`
}

// Lockdown enables or disables the network restriction.
func (ac *AgentController) Lockdown(c *gin.Context) {
	var req lockdownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	var (
		state lockdown.State
		err   error
	)
	switch req.Action {
	case "enable":
		state, err = ac.lockdown.Enable(c.Request.Context())
	case "disable":
		state, err = ac.lockdown.Release(c.Request.Context())
	default:
		response.BadRequest(c, "action must be \"enable\" or \"disable\"")
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, state)
}

// LockdownStatus reports the current lockdown state.
func (ac *AgentController) LockdownStatus(c *gin.Context) {
	response.Success(c, ac.lockdown.Status())
}

// LockdownEmergency force-removes any firewall rules and resets state.
func (ac *AgentController) LockdownEmergency(c *gin.Context) {
	response.Success(c, ac.lockdown.EmergencyCleanup(c.Request.Context()))
}

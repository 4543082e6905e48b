package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/streethall/hoa/internal/http/api/apiutil"
	"github.com/streethall/hoa/internal/service"
	"github.com/streethall/hoa/internal/workflow"
)

// FundingHandler manages campaigns or payment requests and reviews their submissions.
type FundingHandler[G, S any, GP service.GoalRecord[G], SP service.SubmissionRecord[S]] struct {
	svc *service.FundingService[G, S, GP, SP]
}

// NewFundingHandler constructs a FundingHandler over svc.
func NewFundingHandler[G, S any, GP service.GoalRecord[G], SP service.SubmissionRecord[S]](svc *service.FundingService[G, S, GP, SP]) *FundingHandler[G, S, GP, SP] {
	return &FundingHandler[G, S, GP, SP]{svc: svc}
}

func (h *FundingHandler[G, S, GP, SP]) goalView(item *G) gin.H {
	return apiutil.GoalView(GP(item).Key(), GP(item).Goal())
}

func (h *FundingHandler[G, S, GP, SP]) submissionView(item *S) gin.H {
	sp := SP(item)
	return apiutil.SubmissionView(sp.Key(), sp.ParentKey(), h.svc.Kind().ParentColumn, sp.Submission())
}

// Create opens a new goal and snapshots the per-group share.
func (h *FundingHandler[G, S, GP, SP]) Create(c *gin.Context) {
	var body apiutil.GoalRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	in, errInput := body.Input()
	if errInput != nil {
		apiutil.WriteError(c, errInput)
		return
	}
	item, errCreate := h.svc.Create(c.Request.Context(), apiutil.Actor(c), in)
	if errCreate != nil {
		apiutil.WriteError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, h.goalView(item))
}

// List returns goals, optionally filtered by ?status.
func (h *FundingHandler[G, S, GP, SP]) List(c *gin.Context) {
	items, errList := h.svc.List(c.Request.Context(), apiutil.Actor(c), strings.TrimSpace(c.Query("status")))
	if errList != nil {
		apiutil.WriteError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": apiutil.Views(items, h.goalView)})
}

// Get returns one goal.
func (h *FundingHandler[G, S, GP, SP]) Get(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	item, errGet := h.svc.Get(c.Request.Context(), apiutil.Actor(c), id)
	if errGet != nil {
		apiutil.WriteError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, h.goalView(item))
}

// Update edits an open goal.
func (h *FundingHandler[G, S, GP, SP]) Update(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	var body apiutil.GoalRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	patch, errPatch := body.Patch()
	if errPatch != nil {
		apiutil.WriteError(c, errPatch)
		return
	}
	item, errUpdate := h.svc.Update(c.Request.Context(), apiutil.Actor(c), id, patch)
	if errUpdate != nil {
		apiutil.WriteError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, h.goalView(item))
}

// Close stops collection for a goal.
func (h *FundingHandler[G, S, GP, SP]) Close(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	item, errClose := h.svc.Close(c.Request.Context(), apiutil.Actor(c), id)
	if errClose != nil {
		apiutil.WriteError(c, errClose)
		return
	}
	c.JSON(http.StatusOK, h.goalView(item))
}

// Delete removes a goal with its submissions.
func (h *FundingHandler[G, S, GP, SP]) Delete(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	if errDelete := h.svc.Delete(c.Request.Context(), apiutil.Actor(c), id); errDelete != nil {
		apiutil.WriteError(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Progress returns participation and collected totals.
func (h *FundingHandler[G, S, GP, SP]) Progress(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	progress, errProgress := h.svc.Progress(c.Request.Context(), apiutil.Actor(c), id)
	if errProgress != nil {
		apiutil.WriteError(c, errProgress)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// Submissions lists submissions, filtered by ?group_id and ?status.
func (h *FundingHandler[G, S, GP, SP]) Submissions(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	filter := service.SubmissionFilter{Status: strings.TrimSpace(c.Query("status"))}
	if raw := strings.TrimSpace(c.Query("group_id")); raw != "" {
		groupID, errParse := strconv.ParseUint(raw, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group_id"})
			return
		}
		filter.GroupID = groupID
	}
	rows, errList := h.svc.Submissions(c.Request.Context(), apiutil.Actor(c), id, filter)
	if errList != nil {
		apiutil.WriteError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": apiutil.Views(rows, h.submissionView)})
}

type submissionStatusRequest struct {
	Status string `json:"status"`
}

// SetSubmissionStatus confirms or rejects a submission.
func (h *FundingHandler[G, S, GP, SP]) SetSubmissionStatus(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	subID, ok := apiutil.ParseID(c, "subId")
	if !ok {
		return
	}
	var body submissionStatusRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	status := workflow.SubmissionStatus(strings.ToLower(strings.TrimSpace(body.Status)))
	item, errSet := h.svc.SetSubmissionStatus(c.Request.Context(), apiutil.Actor(c), id, subID, status)
	if errSet != nil {
		apiutil.WriteError(c, errSet)
		return
	}
	c.JSON(http.StatusOK, h.submissionView(item))
}

// DeleteSubmission removes a submission while the goal is open.
func (h *FundingHandler[G, S, GP, SP]) DeleteSubmission(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	subID, ok := apiutil.ParseID(c, "subId")
	if !ok {
		return
	}
	if errDelete := h.svc.DeleteSubmission(c.Request.Context(), apiutil.Actor(c), id, subID); errDelete != nil {
		apiutil.WriteError(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streethall/hoa/internal/http/api/apiutil"
	"github.com/streethall/hoa/internal/service"
)

// FundingHandler serves campaigns or payment requests to residents: reading progress and
// reporting their group's payments.
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

// List returns goals, optionally filtered by ?status=open|closed.
func (h *FundingHandler[G, S, GP, SP]) List(c *gin.Context) {
	items, errList := h.svc.List(c.Request.Context(), apiutil.Actor(c), c.Query("status"))
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

// Submissions lists the submissions visible to the caller.
func (h *FundingHandler[G, S, GP, SP]) Submissions(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	rows, errList := h.svc.Submissions(c.Request.Context(), apiutil.Actor(c), id, service.SubmissionFilter{Status: c.Query("status")})
	if errList != nil {
		apiutil.WriteError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": apiutil.Views(rows, h.submissionView)})
}

// Submit records a payment for one of the caller's groups.
func (h *FundingHandler[G, S, GP, SP]) Submit(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	var body apiutil.SubmissionRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	in, errInput := body.Input()
	if errInput != nil {
		apiutil.WriteError(c, errInput)
		return
	}
	item, errSubmit := h.svc.Submit(c.Request.Context(), apiutil.Actor(c), id, in)
	if errSubmit != nil {
		apiutil.WriteError(c, errSubmit)
		return
	}
	c.JSON(http.StatusCreated, h.submissionView(item))
}

// UpdateSubmission corrects the caller's own submission.
func (h *FundingHandler[G, S, GP, SP]) UpdateSubmission(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	subID, ok := apiutil.ParseID(c, "subId")
	if !ok {
		return
	}
	var body apiutil.SubmissionRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	patch, errPatch := body.Patch()
	if errPatch != nil {
		apiutil.WriteError(c, errPatch)
		return
	}
	item, errUpdate := h.svc.UpdateSubmission(c.Request.Context(), apiutil.Actor(c), id, subID, patch)
	if errUpdate != nil {
		apiutil.WriteError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, h.submissionView(item))
}

// DeleteSubmission removes the caller's own submission while the goal is open.
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

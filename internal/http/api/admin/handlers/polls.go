package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/streethall/hoa/internal/http/api/apiutil"
	"github.com/streethall/hoa/internal/service"
	"github.com/streethall/hoa/internal/workflow"
)

// PollHandler manages polls, their options and lifecycle.
type PollHandler struct {
	polls *service.PollService
}

// NewPollHandler constructs a PollHandler.
func NewPollHandler(polls *service.PollService) *PollHandler {
	return &PollHandler{polls: polls}
}

type optionRequest struct {
	Label       *string  `json:"label"`
	Description *string  `json:"description"`
	Amount      *float64 `json:"amount"`
	ClearAmount bool     `json:"clear_amount"`
	Position    *int     `json:"position"`
}

func (r optionRequest) input() service.OptionInput {
	in := service.OptionInput{Amount: r.Amount}
	if r.Label != nil {
		in.Label = *r.Label
	}
	if r.Description != nil {
		in.Description = *r.Description
	}
	return in
}

type pollRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	ClosesAt    *string         `json:"closes_at"`
	Options     []optionRequest `json:"options"`
}

// Create adds a draft poll.
func (h *PollHandler) Create(c *gin.Context) {
	var body pollRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	in := service.PollInput{}
	if body.Title != nil {
		in.Title = *body.Title
	}
	if body.Description != nil {
		in.Description = *body.Description
	}
	if body.ClosesAt != nil {
		closesAt, errTime := apiutil.ParseTime(*body.ClosesAt)
		if errTime != nil {
			apiutil.WriteError(c, errTime)
			return
		}
		in.ClosesAt = closesAt
	}
	for _, option := range body.Options {
		in.Options = append(in.Options, option.input())
	}
	poll, errCreate := h.polls.Create(c.Request.Context(), apiutil.Actor(c), in)
	if errCreate != nil {
		apiutil.WriteError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, apiutil.PollView(poll))
}

// List returns polls in any state, optionally filtered by ?status.
func (h *PollHandler) List(c *gin.Context) {
	rows, errList := h.polls.List(c.Request.Context(), apiutil.Actor(c), strings.TrimSpace(c.Query("status")))
	if errList != nil {
		apiutil.WriteError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"polls": apiutil.Views(rows, apiutil.PollView)})
}

// Get returns one poll.
func (h *PollHandler) Get(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	poll, errGet := h.polls.Get(c.Request.Context(), apiutil.Actor(c), id)
	if errGet != nil {
		apiutil.WriteError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, apiutil.PollView(poll))
}

// Update edits a draft poll.
func (h *PollHandler) Update(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	var body pollRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	patch := service.PollPatch{Title: body.Title, Description: body.Description}
	if body.ClosesAt != nil {
		closesAt, errTime := apiutil.ParseTime(*body.ClosesAt)
		if errTime != nil {
			apiutil.WriteError(c, errTime)
			return
		}
		patch.ClosesAt = closesAt
	}
	poll, errUpdate := h.polls.Update(c.Request.Context(), apiutil.Actor(c), id, patch)
	if errUpdate != nil {
		apiutil.WriteError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, apiutil.PollView(poll))
}

// Delete removes a poll with its options and votes.
func (h *PollHandler) Delete(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	if errDelete := h.polls.Delete(c.Request.Context(), apiutil.Actor(c), id); errDelete != nil {
		apiutil.WriteError(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AddOption appends an option to a draft poll.
func (h *PollHandler) AddOption(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	var body optionRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	option, errAdd := h.polls.AddOption(c.Request.Context(), apiutil.Actor(c), id, body.input())
	if errAdd != nil {
		apiutil.WriteError(c, errAdd)
		return
	}
	c.JSON(http.StatusCreated, apiutil.OptionView(option))
}

// UpdateOption edits an option of a draft poll.
func (h *PollHandler) UpdateOption(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	optionID, ok := apiutil.ParseID(c, "optionId")
	if !ok {
		return
	}
	var body optionRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	patch := service.OptionPatch{
		Label:       body.Label,
		Description: body.Description,
		Amount:      body.Amount,
		ClearAmount: body.ClearAmount,
		Position:    body.Position,
	}
	option, errUpdate := h.polls.UpdateOption(c.Request.Context(), apiutil.Actor(c), id, optionID, patch)
	if errUpdate != nil {
		apiutil.WriteError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, apiutil.OptionView(option))
}

// RemoveOption deletes an option of a draft poll.
func (h *PollHandler) RemoveOption(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	optionID, ok := apiutil.ParseID(c, "optionId")
	if !ok {
		return
	}
	if errRemove := h.polls.RemoveOption(c.Request.Context(), apiutil.Actor(c), id, optionID); errRemove != nil {
		apiutil.WriteError(c, errRemove)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type transitionRequest struct {
	Action string `json:"action"`
}

// Transition applies launch, close, reopen or reset.
func (h *PollHandler) Transition(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	var body transitionRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	action := workflow.PollAction(strings.ToLower(strings.TrimSpace(body.Action)))
	poll, errTransition := h.polls.Transition(c.Request.Context(), apiutil.Actor(c), id, action)
	if errTransition != nil {
		apiutil.WriteError(c, errTransition)
		return
	}
	c.JSON(http.StatusOK, apiutil.PollView(poll))
}

// Results returns per-option counts and participation.
func (h *PollHandler) Results(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	results, errResults := h.polls.Results(c.Request.Context(), apiutil.Actor(c), id)
	if errResults != nil {
		apiutil.WriteError(c, errResults)
		return
	}
	c.JSON(http.StatusOK, results)
}

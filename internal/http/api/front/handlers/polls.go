package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streethall/hoa/internal/http/api/apiutil"
	"github.com/streethall/hoa/internal/service"
)

// PollHandler lets residents read polls and vote for their group.
type PollHandler struct {
	polls *service.PollService
}

// NewPollHandler constructs a PollHandler.
func NewPollHandler(polls *service.PollService) *PollHandler {
	return &PollHandler{polls: polls}
}

// List returns active and closed polls.
func (h *PollHandler) List(c *gin.Context) {
	polls, errList := h.polls.List(c.Request.Context(), apiutil.Actor(c), c.Query("status"))
	if errList != nil {
		apiutil.WriteError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"polls": apiutil.Views(polls, apiutil.PollView)})
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

// voteRequest names the voting group and its choice.
type voteRequest struct {
	GroupID  uint64 `json:"group_id"`
	OptionID uint64 `json:"option_id"`
}

// Vote casts or replaces the group's vote.
func (h *PollHandler) Vote(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	var body voteRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	vote, errVote := h.polls.CastVote(c.Request.Context(), apiutil.Actor(c), id, body.GroupID, body.OptionID)
	if errVote != nil {
		apiutil.WriteError(c, errVote)
		return
	}
	c.JSON(http.StatusOK, apiutil.VoteView(vote))
}

// GroupVote returns the current vote of a group, or null.
func (h *PollHandler) GroupVote(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	groupID, ok := apiutil.ParseID(c, "groupId")
	if !ok {
		return
	}
	vote, errVote := h.polls.GroupVote(c.Request.Context(), apiutil.Actor(c), id, groupID)
	if errVote != nil {
		apiutil.WriteError(c, errVote)
		return
	}
	if vote == nil {
		c.JSON(http.StatusOK, gin.H{"vote": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vote": apiutil.VoteView(vote)})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streethall/hoa/internal/http/api/apiutil"
	"github.com/streethall/hoa/internal/service"
	"github.com/streethall/hoa/internal/workflow"
)

// GroupHandler serves a resident's groups and lets group admins manage members.
type GroupHandler struct {
	groups *service.GroupService
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groups *service.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// List returns the groups of the signed-in user.
func (h *GroupHandler) List(c *gin.Context) {
	groups, errList := h.groups.ListForUser(c.Request.Context(), apiutil.Actor(c))
	if errList != nil {
		apiutil.WriteError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": apiutil.Views(groups, apiutil.GroupView)})
}

// Get returns one of the user's groups.
func (h *GroupHandler) Get(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	group, errGet := h.groups.Get(c.Request.Context(), apiutil.Actor(c), id)
	if errGet != nil {
		apiutil.WriteError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, apiutil.GroupView(group))
}

// Members lists the members of a group.
func (h *GroupHandler) Members(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	rows, errList := h.groups.Members(c.Request.Context(), apiutil.Actor(c), id)
	if errList != nil {
		apiutil.WriteError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": apiutil.Views(rows, apiutil.MembershipView)})
}

// addMemberRequest names the user to add.
type addMemberRequest struct {
	UserID uint64 `json:"user_id"`
}

// AddMember adds a user to the group.
func (h *GroupHandler) AddMember(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	var body addMemberRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	row, errAdd := h.groups.AddMember(c.Request.Context(), apiutil.Actor(c), id, body.UserID)
	if errAdd != nil {
		apiutil.WriteError(c, errAdd)
		return
	}
	c.JSON(http.StatusCreated, apiutil.MembershipView(row))
}

// memberStatusRequest carries the new membership status.
type memberStatusRequest struct {
	Status string `json:"status"`
}

// SetMemberStatus activates or deactivates a membership.
func (h *GroupHandler) SetMemberStatus(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	userID, ok := apiutil.ParseID(c, "userId")
	if !ok {
		return
	}
	var body memberStatusRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	row, errSet := h.groups.SetMemberStatus(c.Request.Context(), apiutil.Actor(c), id, userID, workflow.MembershipStatus(body.Status))
	if errSet != nil {
		apiutil.WriteError(c, errSet)
		return
	}
	c.JSON(http.StatusOK, apiutil.MembershipView(row))
}

// RemoveMember removes a user from the group.
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	userID, ok := apiutil.ParseID(c, "userId")
	if !ok {
		return
	}
	if errRemove := h.groups.RemoveMember(c.Request.Context(), apiutil.Actor(c), id, userID); errRemove != nil {
		apiutil.WriteError(c, errRemove)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/streethall/hoa/internal/http/api/apiutil"
	"github.com/streethall/hoa/internal/service"
	"github.com/streethall/hoa/internal/workflow"
)

// GroupHandler manages households.
type GroupHandler struct {
	groups *service.GroupService
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groups *service.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// groupRequest is the create and update body. A zero admin_user_id on update clears the admin.
type groupRequest struct {
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	Description *string `json:"description"`
	AdminUserID *uint64 `json:"admin_user_id"`
}

// Create adds a group.
func (h *GroupHandler) Create(c *gin.Context) {
	var body groupRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	in := service.GroupInput{AdminUserID: body.AdminUserID}
	if body.Name != nil {
		in.Name = *body.Name
	}
	if body.Address != nil {
		in.Address = *body.Address
	}
	if body.Description != nil {
		in.Description = *body.Description
	}
	if in.AdminUserID != nil && *in.AdminUserID == 0 {
		in.AdminUserID = nil
	}
	group, errCreate := h.groups.Create(c.Request.Context(), apiutil.Actor(c), in)
	if errCreate != nil {
		apiutil.WriteError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, apiutil.GroupView(group))
}

// List returns all groups, optionally filtered by ?search.
func (h *GroupHandler) List(c *gin.Context) {
	rows, errList := h.groups.List(c.Request.Context(), apiutil.Actor(c), strings.TrimSpace(c.Query("search")))
	if errList != nil {
		apiutil.WriteError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": apiutil.Views(rows, apiutil.GroupView)})
}

// Get returns one group.
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

// Update edits a group.
func (h *GroupHandler) Update(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	var body groupRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	patch := service.GroupPatch{
		Name:        body.Name,
		Address:     body.Address,
		Description: body.Description,
		AdminUserID: body.AdminUserID,
	}
	if body.AdminUserID != nil && *body.AdminUserID == 0 {
		patch.AdminUserID = nil
		patch.ClearAdmin = true
	}
	group, errUpdate := h.groups.Update(c.Request.Context(), apiutil.Actor(c), id, patch)
	if errUpdate != nil {
		apiutil.WriteError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, apiutil.GroupView(group))
}

// Delete removes a group that nothing references.
func (h *GroupHandler) Delete(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	if errDelete := h.groups.Delete(c.Request.Context(), apiutil.Actor(c), id); errDelete != nil {
		apiutil.WriteError(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Members lists the memberships of a group.
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

type memberRequest struct {
	UserID uint64 `json:"user_id"`
	Status string `json:"status"`
}

// AddMember adds a user to a group.
func (h *GroupHandler) AddMember(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	var body memberRequest
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
	var body memberRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	row, errSet := h.groups.SetMemberStatus(c.Request.Context(), apiutil.Actor(c), id, userID, workflow.MembershipStatus(strings.TrimSpace(body.Status)))
	if errSet != nil {
		apiutil.WriteError(c, errSet)
		return
	}
	c.JSON(http.StatusOK, apiutil.MembershipView(row))
}

// RemoveMember drops a user from a group.
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

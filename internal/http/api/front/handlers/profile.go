package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streethall/hoa/internal/http/api/apiutil"
	"github.com/streethall/hoa/internal/service"
)

// ProfileHandler serves the signed-in user's own account.
type ProfileHandler struct {
	users  *service.UserService
	groups *service.GroupService
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(users *service.UserService, groups *service.GroupService) *ProfileHandler {
	return &ProfileHandler{users: users, groups: groups}
}

// Get returns the profile together with the user's groups.
func (h *ProfileHandler) Get(c *gin.Context) {
	actor := apiutil.Actor(c)
	user, errGet := h.users.Get(c.Request.Context(), actor, actor.ID)
	if errGet != nil {
		apiutil.WriteError(c, errGet)
		return
	}
	groups, errGroups := h.groups.ListForUser(c.Request.Context(), actor)
	if errGroups != nil {
		apiutil.WriteError(c, errGroups)
		return
	}
	out := apiutil.UserView(user)
	out["groups"] = apiutil.Views(groups, apiutil.GroupView)
	c.JSON(http.StatusOK, out)
}

// updateProfileRequest defines the editable profile fields.
type updateProfileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// Update edits the user's own profile.
func (h *ProfileHandler) Update(c *gin.Context) {
	var body updateProfileRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	actor := apiutil.Actor(c)
	user, errUpdate := h.users.UpdateProfile(c.Request.Context(), actor, actor.ID, service.ProfilePatch{
		Name:  body.Name,
		Email: body.Email,
		Phone: body.Phone,
	})
	if errUpdate != nil {
		apiutil.WriteError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, apiutil.UserView(user))
}

// changePasswordRequest defines the request body for password changes.
type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword updates the user's password after verifying the old one.
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	var body changePasswordRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	if errChange := h.users.ChangePassword(c.Request.Context(), apiutil.Actor(c), body.OldPassword, body.NewPassword); errChange != nil {
		apiutil.WriteError(c, errChange)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/streethall/hoa/internal/http/api/apiutil"
	"github.com/streethall/hoa/internal/service"
	"github.com/streethall/hoa/internal/workflow"
)

// UserHandler manages resident and admin accounts.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List returns accounts filtered by ?search, ?role and ?status.
func (h *UserHandler) List(c *gin.Context) {
	filter := service.UserFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Role:   strings.TrimSpace(c.Query("role")),
		Status: strings.TrimSpace(c.Query("status")),
	}
	rows, errList := h.users.List(c.Request.Context(), apiutil.Actor(c), filter)
	if errList != nil {
		apiutil.WriteError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": apiutil.Views(rows, apiutil.UserView)})
}

// Get returns a single account.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	user, errGet := h.users.Get(c.Request.Context(), apiutil.Actor(c), id)
	if errGet != nil {
		apiutil.WriteError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, apiutil.UserView(user))
}

// updateUserRequest carries profile fields an admin may correct.
type updateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// Update edits profile fields of any account.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	var body updateUserRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	patch := service.ProfilePatch{Name: body.Name, Email: body.Email, Phone: body.Phone}
	user, errUpdate := h.users.UpdateProfile(c.Request.Context(), apiutil.Actor(c), id, patch)
	if errUpdate != nil {
		apiutil.WriteError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, apiutil.UserView(user))
}

type setRoleRequest struct {
	Role string `json:"role"`
}

// SetRole promotes or demotes an account.
func (h *UserHandler) SetRole(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	var body setRoleRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	user, errSet := h.users.SetRole(c.Request.Context(), apiutil.Actor(c), id, workflow.Role(strings.TrimSpace(body.Role)))
	if errSet != nil {
		apiutil.WriteError(c, errSet)
		return
	}
	c.JSON(http.StatusOK, apiutil.UserView(user))
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus activates or deactivates an account.
func (h *UserHandler) SetStatus(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	var body setStatusRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	user, errSet := h.users.SetStatus(c.Request.Context(), apiutil.Actor(c), id, workflow.UserStatus(strings.TrimSpace(body.Status)))
	if errSet != nil {
		apiutil.WriteError(c, errSet)
		return
	}
	c.JSON(http.StatusOK, apiutil.UserView(user))
}

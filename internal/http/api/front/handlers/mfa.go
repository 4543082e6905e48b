package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streethall/hoa/internal/http/api/apiutil"
	"github.com/streethall/hoa/internal/service"
)

// MFAHandler manages the TOTP second factor.
type MFAHandler struct {
	users *service.UserService
}

// NewMFAHandler constructs an MFAHandler.
func NewMFAHandler(users *service.UserService) *MFAHandler {
	return &MFAHandler{users: users}
}

// Status reports whether TOTP is enabled.
func (h *MFAHandler) Status(c *gin.Context) {
	actor := apiutil.Actor(c)
	user, errGet := h.users.Get(c.Request.Context(), actor, actor.ID)
	if errGet != nil {
		apiutil.WriteError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"totp_enabled": user.TOTPSecret != "",
		"totp_pending": user.TOTPPendingSecret != "",
	})
}

// PrepareTOTP starts enrollment and returns the secret with its QR code.
func (h *MFAHandler) PrepareTOTP(c *gin.Context) {
	enrollment, errBegin := h.users.BeginTOTP(c.Request.Context(), apiutil.Actor(c))
	if errBegin != nil {
		apiutil.WriteError(c, errBegin)
		return
	}
	c.JSON(http.StatusOK, apiutil.TOTPView(enrollment))
}

// totpCodeRequest carries a TOTP code.
type totpCodeRequest struct {
	Code string `json:"code"`
}

// ConfirmTOTP enables TOTP once the first code checks out.
func (h *MFAHandler) ConfirmTOTP(c *gin.Context) {
	var body totpCodeRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	if errConfirm := h.users.ConfirmTOTP(c.Request.Context(), apiutil.Actor(c), body.Code); errConfirm != nil {
		apiutil.WriteError(c, errConfirm)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DisableTOTP turns TOTP off after checking a current code.
func (h *MFAHandler) DisableTOTP(c *gin.Context) {
	var body totpCodeRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	if errDisable := h.users.DisableTOTP(c.Request.Context(), apiutil.Actor(c), body.Code); errDisable != nil {
		apiutil.WriteError(c, errDisable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

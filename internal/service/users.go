package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/streethall/hoa/internal/activity"
	dbutil "github.com/streethall/hoa/internal/db"
	"github.com/streethall/hoa/internal/models"
	"github.com/streethall/hoa/internal/security"
	"github.com/streethall/hoa/internal/settings"
	"github.com/streethall/hoa/internal/workflow"
	"gorm.io/gorm"
)

// UserService manages accounts, roles and credentials.
type UserService struct {
	db  *gorm.DB
	rec *activity.Recorder
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, rec *activity.Recorder) *UserService {
	return &UserService{db: db, rec: rec}
}

// RegisterInput is the signup payload.
type RegisterInput struct {
	Username string
	Email    string
	Name     string
	Password string
}

// Register creates a regular, active account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if !settings.AllowRegistration() {
		return nil, workflow.Forbiddenf("registration is disabled")
	}
	return s.create(ctx, in, workflow.RoleUser)
}

func (s *UserService) create(ctx context.Context, in RegisterInput, role workflow.Role) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, workflow.Invalidf("missing username")
	}
	hash, errHash := security.HashPassword(strings.TrimSpace(in.Password))
	if errHash != nil {
		if errors.Is(errHash, security.ErrWeakPassword) {
			return nil, workflow.Invalidf("%s", errHash.Error())
		}
		return nil, fmt.Errorf("hash password: %w", errHash)
	}

	user := models.User{
		Username: username,
		Email:    strings.TrimSpace(in.Email),
		Name:     strings.TrimSpace(in.Name),
		Password: hash,
		Role:     string(role),
		Status:   string(workflow.UserActive),
	}
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		var taken int64
		if errCount := sc.tx.Model(&models.User{}).Where("username = ?", username).Count(&taken).Error; errCount != nil {
			return fmt.Errorf("check username: %w", errCount)
		}
		if taken > 0 {
			return workflow.Invalidf("username already exists")
		}
		if errCreate := sc.tx.Create(&user).Error; errCreate != nil {
			return fmt.Errorf("create user: %w", errCreate)
		}
		return sc.record(activity.Entry{ActorID: user.ID, EntityType: activity.EntityUser, EntityID: user.ID, Action: "register"})
	})
	if errTx != nil {
		return nil, errTx
	}
	return &user, nil
}

// EnsureAdmin creates a global admin or promotes an existing account. It is used for bootstrap
// from the command line and bypasses the registration setting.
func (s *UserService) EnsureAdmin(ctx context.Context, in RegisterInput) (*models.User, bool, error) {
	var existing models.User
	errFind := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(in.Username)).First(&existing).Error
	switch {
	case errFind == nil:
		if errUpdate := s.db.WithContext(ctx).Model(&existing).Updates(map[string]any{
			"role":   string(workflow.RoleAdmin),
			"status": string(workflow.UserActive),
		}).Error; errUpdate != nil {
			return nil, false, fmt.Errorf("promote admin: %w", errUpdate)
		}
		existing.Role = string(workflow.RoleAdmin)
		existing.Status = string(workflow.UserActive)
		return &existing, false, nil
	case errors.Is(errFind, gorm.ErrRecordNotFound):
		user, errCreate := s.create(ctx, in, workflow.RoleAdmin)
		if errCreate != nil {
			return nil, false, errCreate
		}
		return user, true, nil
	default:
		return nil, false, fmt.Errorf("load user: %w", errFind)
	}
}

// Authenticate verifies credentials and, when enabled, the TOTP code.
func (s *UserService) Authenticate(ctx context.Context, username, password, code string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, workflow.Invalidf("missing username or password")
	}
	var user models.User
	errFind := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, workflow.Unauthorizedf("invalid credentials")
	}
	if errFind != nil {
		return nil, fmt.Errorf("load user: %w", errFind)
	}
	if !security.CheckPassword(user.Password, password) {
		return nil, workflow.Unauthorizedf("invalid credentials")
	}
	if user.Status != string(workflow.UserActive) {
		return nil, workflow.Forbiddenf("account is inactive")
	}
	if strings.TrimSpace(user.TOTPSecret) != "" {
		if strings.TrimSpace(code) == "" {
			return nil, ErrMFARequired
		}
		if !security.ValidateTOTP(strings.TrimSpace(code), user.TOTPSecret) {
			return nil, workflow.Unauthorizedf("invalid code")
		}
	}
	return &user, nil
}

// ErrMFARequired is returned by Authenticate when a TOTP code must accompany the password.
var ErrMFARequired = workflow.Unauthorizedf("mfa code required")

// Actor loads the current role and status of userID. Inactive accounts are refused.
func (s *UserService) Actor(ctx context.Context, userID uint64) (workflow.Actor, error) {
	var user models.User
	if errFind := s.db.WithContext(ctx).Select("id", "role", "status").First(&user, userID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return workflow.Actor{}, workflow.Unauthorizedf("user not found")
		}
		return workflow.Actor{}, fmt.Errorf("load user: %w", errFind)
	}
	if user.Status != string(workflow.UserActive) {
		return workflow.Actor{}, workflow.Forbiddenf("account is inactive")
	}
	return workflow.Actor{ID: user.ID, Role: workflow.Role(user.Role)}, nil
}

// Get returns a user to itself or to a global admin.
func (s *UserService) Get(ctx context.Context, actor workflow.Actor, id uint64) (*models.User, error) {
	if err := workflow.RequireOwnerOrGlobalAdmin(actor, id); err != nil {
		return nil, err
	}
	var user models.User
	if errFind := s.db.WithContext(ctx).Preload("Memberships").First(&user, id).Error; errFind != nil {
		return nil, lookupErr(errFind, "user")
	}
	return &user, nil
}

// UserFilter narrows List.
type UserFilter struct {
	Search string
	Role   string
	Status string
}

// List returns accounts for global admins.
func (s *UserService) List(ctx context.Context, actor workflow.Actor, f UserFilter) ([]models.User, error) {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Model(&models.User{})
	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := dbutil.NormalizeLikePattern(s.db, "%"+term+"%")
		like := dbutil.CaseInsensitiveLikeExpr(s.db, "username")
		q = q.Where(s.db.Where(like, pattern).
			Or(dbutil.CaseInsensitiveLikeExpr(s.db, "name"), pattern).
			Or(dbutil.CaseInsensitiveLikeExpr(s.db, "email"), pattern))
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var rows []models.User
	if errFind := q.Order("username ASC").Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("list users: %w", errFind)
	}
	return rows, nil
}

// ProfilePatch carries optional profile changes.
type ProfilePatch struct {
	Name  *string
	Email *string
	Phone *string
}

// UpdateProfile edits profile fields of the actor, or of anyone for a global admin.
func (s *UserService) UpdateProfile(ctx context.Context, actor workflow.Actor, id uint64, p ProfilePatch) (*models.User, error) {
	if err := workflow.RequireOwnerOrGlobalAdmin(actor, id); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if p.Name != nil {
		updates["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		updates["email"] = strings.TrimSpace(*p.Email)
	}
	if p.Phone != nil {
		updates["phone"] = strings.TrimSpace(*p.Phone)
	}
	if len(updates) == 0 {
		return nil, workflow.Invalidf("no fields to update")
	}
	var user models.User
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		if errFind := sc.tx.First(&user, id).Error; errFind != nil {
			return lookupErr(errFind, "user")
		}
		if errUpdate := sc.tx.Model(&user).Updates(updates).Error; errUpdate != nil {
			return fmt.Errorf("update profile: %w", errUpdate)
		}
		return sc.tx.First(&user, id).Error
	})
	if errTx != nil {
		return nil, errTx
	}
	return &user, nil
}

// SetRole changes the global role of a user. Admins cannot demote themselves.
func (s *UserService) SetRole(ctx context.Context, actor workflow.Actor, id uint64, role workflow.Role) (*models.User, error) {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, workflow.Invalidf("unknown role %q", role)
	}
	if id == actor.ID && role != workflow.RoleAdmin {
		return nil, workflow.Invalidf("admins cannot remove their own admin role")
	}
	return s.setField(ctx, actor, id, "role", string(role))
}

// SetStatus activates or deactivates an account. Admins cannot deactivate themselves.
func (s *UserService) SetStatus(ctx context.Context, actor workflow.Actor, id uint64, status workflow.UserStatus) (*models.User, error) {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, workflow.Invalidf("unknown status %q", status)
	}
	if id == actor.ID && status != workflow.UserActive {
		return nil, workflow.Invalidf("admins cannot deactivate themselves")
	}
	return s.setField(ctx, actor, id, "status", string(status))
}

func (s *UserService) setField(ctx context.Context, actor workflow.Actor, id uint64, column, value string) (*models.User, error) {
	var user models.User
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		if errFind := sc.tx.First(&user, id).Error; errFind != nil {
			return lookupErr(errFind, "user")
		}
		if errUpdate := sc.tx.Model(&user).Update(column, value).Error; errUpdate != nil {
			return fmt.Errorf("update %s: %w", column, errUpdate)
		}
		if errReload := sc.tx.First(&user, id).Error; errReload != nil {
			return fmt.Errorf("reload user: %w", errReload)
		}
		return sc.record(activity.Entry{
			ActorID:    actor.ID,
			EntityType: activity.EntityUser,
			EntityID:   id,
			Action:     "set_" + column,
			Details:    map[string]any{column: value},
		})
	})
	if errTx != nil {
		return nil, errTx
	}
	return &user, nil
}

// ChangePassword verifies the old password and stores the new one.
func (s *UserService) ChangePassword(ctx context.Context, actor workflow.Actor, oldPassword, newPassword string) error {
	if err := workflow.RequireActor(actor); err != nil {
		return err
	}
	var user models.User
	if errFind := s.db.WithContext(ctx).First(&user, actor.ID).Error; errFind != nil {
		return lookupErr(errFind, "user")
	}
	if !security.CheckPassword(user.Password, oldPassword) {
		return workflow.Forbiddenf("old password incorrect")
	}
	hash, errHash := security.HashPassword(strings.TrimSpace(newPassword))
	if errHash != nil {
		if errors.Is(errHash, security.ErrWeakPassword) {
			return workflow.Invalidf("%s", errHash.Error())
		}
		return fmt.Errorf("hash password: %w", errHash)
	}
	if errUpdate := s.db.WithContext(ctx).Model(&user).Update("password", hash).Error; errUpdate != nil {
		return fmt.Errorf("change password: %w", errUpdate)
	}
	return nil
}

// BeginTOTP generates a pending TOTP secret for the actor.
func (s *UserService) BeginTOTP(ctx context.Context, actor workflow.Actor) (*security.TOTPEnrollment, error) {
	if err := workflow.RequireActor(actor); err != nil {
		return nil, err
	}
	var user models.User
	if errFind := s.db.WithContext(ctx).Select("id", "username", "totp_secret").First(&user, actor.ID).Error; errFind != nil {
		return nil, lookupErr(errFind, "user")
	}
	if user.TOTPSecret != "" {
		return nil, workflow.Invalidf("two-factor authentication is already enabled")
	}
	enrollment, errEnroll := security.NewTOTPEnrollment(user.Username)
	if errEnroll != nil {
		return nil, fmt.Errorf("generate totp secret: %w", errEnroll)
	}
	if errUpdate := s.db.WithContext(ctx).Model(&user).Update("totp_pending_secret", enrollment.Secret).Error; errUpdate != nil {
		return nil, fmt.Errorf("store totp secret: %w", errUpdate)
	}
	return enrollment, nil
}

// ConfirmTOTP enables the pending secret once a valid code is presented.
func (s *UserService) ConfirmTOTP(ctx context.Context, actor workflow.Actor, code string) error {
	if err := workflow.RequireActor(actor); err != nil {
		return err
	}
	var user models.User
	if errFind := s.db.WithContext(ctx).First(&user, actor.ID).Error; errFind != nil {
		return lookupErr(errFind, "user")
	}
	if user.TOTPPendingSecret == "" {
		return workflow.Invalidf("no two-factor setup in progress")
	}
	if !security.ValidateTOTP(strings.TrimSpace(code), user.TOTPPendingSecret) {
		return workflow.Invalidf("invalid code")
	}
	return s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"totp_secret":         user.TOTPPendingSecret,
		"totp_pending_secret": "",
	}).Error
}

// DisableTOTP removes the secret after checking a current code.
func (s *UserService) DisableTOTP(ctx context.Context, actor workflow.Actor, code string) error {
	if err := workflow.RequireActor(actor); err != nil {
		return err
	}
	var user models.User
	if errFind := s.db.WithContext(ctx).First(&user, actor.ID).Error; errFind != nil {
		return lookupErr(errFind, "user")
	}
	if user.TOTPSecret == "" {
		return workflow.Invalidf("two-factor authentication is not enabled")
	}
	if !security.ValidateTOTP(strings.TrimSpace(code), user.TOTPSecret) {
		return workflow.Invalidf("invalid code")
	}
	return s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"totp_secret":         "",
		"totp_pending_secret": "",
	}).Error
}

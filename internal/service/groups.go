package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/streethall/hoa/internal/activity"
	dbutil "github.com/streethall/hoa/internal/db"
	"github.com/streethall/hoa/internal/models"
	"github.com/streethall/hoa/internal/workflow"
	"gorm.io/gorm"
)

// GroupService manages house groups and their memberships.
type GroupService struct {
	db  *gorm.DB
	rec *activity.Recorder
}

// NewGroupService constructs a GroupService.
func NewGroupService(db *gorm.DB, rec *activity.Recorder) *GroupService {
	return &GroupService{db: db, rec: rec}
}

// GroupInput is the create payload.
type GroupInput struct {
	Name        string
	Address     string
	Description string
	AdminUserID *uint64
}

// GroupPatch carries optional group changes. ClearAdmin removes the group admin.
type GroupPatch struct {
	Name        *string
	Address     *string
	Description *string
	AdminUserID *uint64
	ClearAdmin  bool
}

// Create adds a group. Global admin only.
func (s *GroupService) Create(ctx context.Context, actor workflow.Actor, in GroupInput) (*models.Group, error) {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, workflow.Invalidf("missing name")
	}
	group := models.Group{
		Name:        name,
		Address:     strings.TrimSpace(in.Address),
		Description: strings.TrimSpace(in.Description),
		AdminUserID: in.AdminUserID,
	}
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		if errName := ensureGroupNameFree(sc.tx, name, 0); errName != nil {
			return errName
		}
		if group.AdminUserID != nil {
			if errUser := ensureUserExists(sc.tx, *group.AdminUserID); errUser != nil {
				return errUser
			}
		}
		if errCreate := sc.tx.Create(&group).Error; errCreate != nil {
			return fmt.Errorf("create group: %w", errCreate)
		}
		if group.AdminUserID != nil {
			if errMember := ensureMembership(sc.tx, group.ID, *group.AdminUserID); errMember != nil {
				return errMember
			}
		}
		return sc.record(activity.Entry{ActorID: actor.ID, EntityType: activity.EntityGroup, EntityID: group.ID, Action: "create"})
	})
	if errTx != nil {
		return nil, errTx
	}
	return &group, nil
}

// Update edits a group. Global admin only.
func (s *GroupService) Update(ctx context.Context, actor workflow.Actor, id uint64, p GroupPatch) (*models.Group, error) {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	var group models.Group
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		if errFind := sc.tx.First(&group, id).Error; errFind != nil {
			return lookupErr(errFind, "group")
		}
		updates := map[string]any{}
		if p.Name != nil {
			name := strings.TrimSpace(*p.Name)
			if name == "" {
				return workflow.Invalidf("missing name")
			}
			if errName := ensureGroupNameFree(sc.tx, name, id); errName != nil {
				return errName
			}
			updates["name"] = name
		}
		if p.Address != nil {
			updates["address"] = strings.TrimSpace(*p.Address)
		}
		if p.Description != nil {
			updates["description"] = strings.TrimSpace(*p.Description)
		}
		switch {
		case p.ClearAdmin:
			updates["admin_user_id"] = nil
		case p.AdminUserID != nil:
			if errUser := ensureUserExists(sc.tx, *p.AdminUserID); errUser != nil {
				return errUser
			}
			if errMember := ensureMembership(sc.tx, id, *p.AdminUserID); errMember != nil {
				return errMember
			}
			updates["admin_user_id"] = *p.AdminUserID
		}
		if len(updates) == 0 {
			return workflow.Invalidf("no fields to update")
		}
		if errUpdate := sc.tx.Model(&group).Updates(updates).Error; errUpdate != nil {
			return fmt.Errorf("update group: %w", errUpdate)
		}
		if errReload := sc.tx.First(&group, id).Error; errReload != nil {
			return fmt.Errorf("reload group: %w", errReload)
		}
		return sc.record(activity.Entry{ActorID: actor.ID, EntityType: activity.EntityGroup, EntityID: id, Action: "update"})
	})
	if errTx != nil {
		return nil, errTx
	}
	return &group, nil
}

// Delete removes a group and its memberships. Groups referenced by votes or submissions stay.
func (s *GroupService) Delete(ctx context.Context, actor workflow.Actor, id uint64) error {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return err
	}
	return inTx(ctx, s.db, s.rec, func(sc *scope) error {
		var group models.Group
		if errFind := sc.tx.Select("id").First(&group, id).Error; errFind != nil {
			return lookupErr(errFind, "group")
		}
		for _, ref := range []any{&models.Vote{}, &models.Contribution{}, &models.PaymentReport{}} {
			var n int64
			if errCount := sc.tx.Model(ref).Where("group_id = ?", id).Count(&n).Error; errCount != nil {
				return fmt.Errorf("check group references: %w", errCount)
			}
			if n > 0 {
				return workflow.Invalidf("group has votes or payments and cannot be deleted")
			}
		}
		if errDelete := sc.tx.Where("group_id = ?", id).Delete(&models.GroupMembership{}).Error; errDelete != nil {
			return fmt.Errorf("delete memberships: %w", errDelete)
		}
		if errDelete := sc.tx.Delete(&models.Group{}, id).Error; errDelete != nil {
			return fmt.Errorf("delete group: %w", errDelete)
		}
		return sc.record(activity.Entry{ActorID: actor.ID, EntityType: activity.EntityGroup, EntityID: id, Action: "delete"})
	})
}

// Get returns a group with its admin to a member or a global admin.
func (s *GroupService) Get(ctx context.Context, actor workflow.Actor, id uint64) (*models.Group, error) {
	if err := s.requireMemberOrAdmin(ctx, actor, id); err != nil {
		return nil, err
	}
	var group models.Group
	if errFind := s.db.WithContext(ctx).Preload("AdminUser").First(&group, id).Error; errFind != nil {
		return nil, lookupErr(errFind, "group")
	}
	return &group, nil
}

// List returns every group. Global admin only.
func (s *GroupService) List(ctx context.Context, actor workflow.Actor, search string) ([]models.Group, error) {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	q := dbutil.LikeFilter(s.db, s.db.WithContext(ctx).Model(&models.Group{}), "name", search)
	var groups []models.Group
	if errFind := q.Preload("AdminUser").Order("name ASC").Find(&groups).Error; errFind != nil {
		return nil, fmt.Errorf("list groups: %w", errFind)
	}
	return groups, nil
}

// ListForUser returns the groups the actor belongs to.
func (s *GroupService) ListForUser(ctx context.Context, actor workflow.Actor) ([]models.Group, error) {
	if err := workflow.RequireActor(actor); err != nil {
		return nil, err
	}
	conn := s.db.WithContext(ctx)
	ids, errIDs := memberGroupIDs(conn, actor.ID)
	if errIDs != nil {
		return nil, errIDs
	}
	groups := make([]models.Group, 0, len(ids))
	if len(ids) == 0 {
		return groups, nil
	}
	if errFind := conn.Where("id IN ?", ids).Order("name ASC").Find(&groups).Error; errFind != nil {
		return nil, fmt.Errorf("list groups: %w", errFind)
	}
	return groups, nil
}

// Members lists memberships with users. Visible to members and global admins.
func (s *GroupService) Members(ctx context.Context, actor workflow.Actor, groupID uint64) ([]models.GroupMembership, error) {
	if err := s.requireMemberOrAdmin(ctx, actor, groupID); err != nil {
		return nil, err
	}
	var rows []models.GroupMembership
	errFind := s.db.WithContext(ctx).
		Preload("User", func(tx *gorm.DB) *gorm.DB {
			return tx.Select("id", "username", "name", "email", "phone", "role", "status")
		}).
		Where("group_id = ?", groupID).
		Order("id ASC").
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("list members: %w", errFind)
	}
	return rows, nil
}

// AddMember adds a user to a group as active. Group admin or global admin.
func (s *GroupService) AddMember(ctx context.Context, actor workflow.Actor, groupID, userID uint64) (*models.GroupMembership, error) {
	var row models.GroupMembership
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		if errGuard := s.requireGroupAdmin(sc.tx, actor, groupID); errGuard != nil {
			return errGuard
		}
		if errUser := ensureUserExists(sc.tx, userID); errUser != nil {
			return errUser
		}
		exists, errMember := isGroupMember(sc.tx, groupID, userID)
		if errMember != nil {
			return errMember
		}
		if exists {
			return workflow.Invalidf("user is already a member of this group")
		}
		row = models.GroupMembership{GroupID: groupID, UserID: userID, Status: string(workflow.MembershipActive)}
		if errCreate := sc.tx.Create(&row).Error; errCreate != nil {
			return fmt.Errorf("add member: %w", errCreate)
		}
		return sc.record(activity.Entry{
			ActorID:    actor.ID,
			EntityType: activity.EntityMembership,
			EntityID:   row.ID,
			Action:     "add",
			Details:    map[string]any{"group_id": groupID, "user_id": userID},
		})
	})
	if errTx != nil {
		return nil, errTx
	}
	return &row, nil
}

// SetMemberStatus activates or deactivates a membership. Group admin or global admin.
func (s *GroupService) SetMemberStatus(ctx context.Context, actor workflow.Actor, groupID, userID uint64, status workflow.MembershipStatus) (*models.GroupMembership, error) {
	if !status.Valid() {
		return nil, workflow.Invalidf("unknown membership status %q", status)
	}
	var row models.GroupMembership
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		if errGuard := s.requireGroupAdmin(sc.tx, actor, groupID); errGuard != nil {
			return errGuard
		}
		if errFind := sc.tx.Where("group_id = ? AND user_id = ?", groupID, userID).First(&row).Error; errFind != nil {
			return lookupErr(errFind, "membership")
		}
		if errUpdate := sc.tx.Model(&row).Update("status", string(status)).Error; errUpdate != nil {
			return fmt.Errorf("update membership: %w", errUpdate)
		}
		return sc.record(activity.Entry{
			ActorID:    actor.ID,
			EntityType: activity.EntityMembership,
			EntityID:   row.ID,
			Action:     "set_status",
			Details:    map[string]any{"group_id": groupID, "user_id": userID, "status": string(status)},
		})
	})
	if errTx != nil {
		return nil, errTx
	}
	return &row, nil
}

// RemoveMember deletes a membership. The group admin cannot be removed while assigned.
func (s *GroupService) RemoveMember(ctx context.Context, actor workflow.Actor, groupID, userID uint64) error {
	return inTx(ctx, s.db, s.rec, func(sc *scope) error {
		if errGuard := s.requireGroupAdmin(sc.tx, actor, groupID); errGuard != nil {
			return errGuard
		}
		var group models.Group
		if errFind := sc.tx.Select("id", "admin_user_id").First(&group, groupID).Error; errFind != nil {
			return lookupErr(errFind, "group")
		}
		if group.AdminUserID != nil && *group.AdminUserID == userID {
			return workflow.Invalidf("reassign the group admin before removing them")
		}
		var row models.GroupMembership
		if errFind := sc.tx.Where("group_id = ? AND user_id = ?", groupID, userID).First(&row).Error; errFind != nil {
			return lookupErr(errFind, "membership")
		}
		if errDelete := sc.tx.Delete(&row).Error; errDelete != nil {
			return fmt.Errorf("remove member: %w", errDelete)
		}
		return sc.record(activity.Entry{
			ActorID:    actor.ID,
			EntityType: activity.EntityMembership,
			EntityID:   row.ID,
			Action:     "remove",
			Details:    map[string]any{"group_id": groupID, "user_id": userID},
		})
	})
}

// ActiveGroupCount returns the number of groups with at least one active membership.
func (s *GroupService) ActiveGroupCount(ctx context.Context) (int64, error) {
	return activeGroupCount(s.db.WithContext(ctx))
}

func (s *GroupService) requireGroupAdmin(tx *gorm.DB, actor workflow.Actor, groupID uint64) error {
	if err := workflow.RequireActor(actor); err != nil {
		return err
	}
	ref, errRef := loadGroupRef(tx, groupID)
	if errRef != nil {
		return errRef
	}
	return workflow.RequireGroupAdminOrGlobalAdmin(actor, ref)
}

func (s *GroupService) requireMemberOrAdmin(ctx context.Context, actor workflow.Actor, groupID uint64) error {
	if err := workflow.RequireActor(actor); err != nil {
		return err
	}
	conn := s.db.WithContext(ctx)
	if actor.IsGlobalAdmin() {
		ref, errRef := loadGroupRef(conn, groupID)
		if errRef != nil {
			return errRef
		}
		if ref == nil {
			return workflow.NotFoundf("group not found")
		}
		return nil
	}
	return requireMemberOf(conn, actor, groupID)
}

func ensureGroupNameFree(tx *gorm.DB, name string, exceptID uint64) error {
	var n int64
	q := tx.Model(&models.Group{}).Where("name = ?", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if errCount := q.Count(&n).Error; errCount != nil {
		return fmt.Errorf("check group name: %w", errCount)
	}
	if n > 0 {
		return workflow.Invalidf("group name already exists")
	}
	return nil
}

func ensureUserExists(tx *gorm.DB, userID uint64) error {
	var user models.User
	errFind := tx.Select("id").First(&user, userID).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return workflow.Invalidf("user %d does not exist", userID)
	}
	if errFind != nil {
		return fmt.Errorf("load user: %w", errFind)
	}
	return nil
}

// ensureMembership adds an active membership unless one already exists.
func ensureMembership(tx *gorm.DB, groupID, userID uint64) error {
	exists, errMember := isGroupMember(tx, groupID, userID)
	if errMember != nil {
		return errMember
	}
	if exists {
		return nil
	}
	row := models.GroupMembership{GroupID: groupID, UserID: userID, Status: string(workflow.MembershipActive)}
	if errCreate := tx.Create(&row).Error; errCreate != nil {
		return fmt.Errorf("add member: %w", errCreate)
	}
	return nil
}

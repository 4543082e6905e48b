package workflow

// GroupRef carries the fields of a group that entitlement checks need.
type GroupRef struct {
	ID          uint64
	AdminUserID *uint64
}

// RequireGlobalAdmin fails unless the actor is a global admin.
func RequireGlobalAdmin(actor Actor) error {
	if err := RequireActor(actor); err != nil {
		return err
	}
	if !actor.IsGlobalAdmin() {
		return Forbiddenf("admin role required")
	}
	return nil
}

// RequireGroupAdminOrGlobalAdmin fails with KindNotFound when group is nil and with
// KindForbidden unless the actor is a global admin or the group's admin.
func RequireGroupAdminOrGlobalAdmin(actor Actor, group *GroupRef) error {
	if err := RequireActor(actor); err != nil {
		return err
	}
	if group == nil {
		return NotFoundf("group not found")
	}
	if actor.IsGlobalAdmin() {
		return nil
	}
	if group.AdminUserID != nil && *group.AdminUserID == actor.ID {
		return nil
	}
	return Forbiddenf("group admin role required")
}

// RequireGroupMember fails unless a membership row exists for (group, actor).
// The membership status is not consulted.
func RequireGroupMember(actor Actor, group *GroupRef, isMember bool) error {
	if err := RequireActor(actor); err != nil {
		return err
	}
	if group == nil {
		return NotFoundf("group not found")
	}
	if !isMember {
		return Forbiddenf("not a member of this group")
	}
	return nil
}

// RequireOwnerOrGlobalAdmin fails unless the actor owns the record or is a global admin.
func RequireOwnerOrGlobalAdmin(actor Actor, ownerID uint64) error {
	if err := RequireActor(actor); err != nil {
		return err
	}
	if actor.IsGlobalAdmin() || actor.ID == ownerID {
		return nil
	}
	return Forbiddenf("only the submitter or an admin may do this")
}

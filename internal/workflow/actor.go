package workflow

// Role is the global role of a user.
type Role string

// Global roles.
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// UserStatus is the account status of a user.
type UserStatus string

// User statuses.
const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

// Valid reports whether s is a known user status.
func (s UserStatus) Valid() bool {
	return s == UserActive || s == UserInactive
}

// MembershipStatus is the status of a group membership, independent of the user status.
type MembershipStatus string

// Membership statuses.
const (
	MembershipActive   MembershipStatus = "active"
	MembershipInactive MembershipStatus = "inactive"
)

// Valid reports whether s is a known membership status.
func (s MembershipStatus) Valid() bool {
	return s == MembershipActive || s == MembershipInactive
}

// Actor is the identity performing an operation.
type Actor struct {
	ID   uint64
	Role Role
}

// IsGlobalAdmin reports whether the actor holds the global admin role.
func (a Actor) IsGlobalAdmin() bool {
	return a.Role == RoleAdmin
}

// RequireActor fails with KindUnauthorized when no identity is present.
func RequireActor(actor Actor) error {
	if actor.ID == 0 {
		return Unauthorizedf("authentication required")
	}
	return nil
}

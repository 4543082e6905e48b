package apiutil

import (
	"github.com/gin-gonic/gin"
	"github.com/streethall/hoa/internal/models"
	"github.com/streethall/hoa/internal/security"
)

// UserView renders a user without credentials.
func UserView(u *models.User) gin.H {
	return gin.H{
		"id":           u.ID,
		"username":     u.Username,
		"email":        u.Email,
		"name":         u.Name,
		"phone":        u.Phone,
		"role":         u.Role,
		"status":       u.Status,
		"totp_enabled": u.TOTPSecret != "",
		"created_at":   u.CreatedAt,
		"updated_at":   u.UpdatedAt,
	}
}

// GroupView renders a group and, when loaded, its admin.
func GroupView(g *models.Group) gin.H {
	out := gin.H{
		"id":            g.ID,
		"name":          g.Name,
		"address":       g.Address,
		"description":   g.Description,
		"admin_user_id": g.AdminUserID,
		"created_at":    g.CreatedAt,
		"updated_at":    g.UpdatedAt,
	}
	if g.AdminUser != nil {
		out["admin_user"] = gin.H{"id": g.AdminUser.ID, "username": g.AdminUser.Username, "name": g.AdminUser.Name}
	}
	return out
}

// MembershipView renders a membership with its user when loaded.
func MembershipView(m *models.GroupMembership) gin.H {
	out := gin.H{
		"id":         m.ID,
		"group_id":   m.GroupID,
		"user_id":    m.UserID,
		"status":     m.Status,
		"created_at": m.CreatedAt,
	}
	if m.User != nil {
		out["user"] = gin.H{
			"id":       m.User.ID,
			"username": m.User.Username,
			"name":     m.User.Name,
			"email":    m.User.Email,
			"phone":    m.User.Phone,
		}
	}
	return out
}

// PollView renders a poll with its options.
func PollView(p *models.Poll) gin.H {
	options := make([]gin.H, 0, len(p.Options))
	for i := range p.Options {
		options = append(options, OptionView(&p.Options[i]))
	}
	return gin.H{
		"id":          p.ID,
		"title":       p.Title,
		"description": p.Description,
		"status":      p.Status,
		"closes_at":   p.ClosesAt,
		"created_by":  p.CreatedBy,
		"options":     options,
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}
}

// OptionView renders a poll option.
func OptionView(o *models.PollOption) gin.H {
	return gin.H{
		"id":          o.ID,
		"poll_id":     o.PollID,
		"label":       o.Label,
		"description": o.Description,
		"amount":      o.Amount,
		"position":    o.Position,
	}
}

// VoteView renders a vote.
func VoteView(v *models.Vote) gin.H {
	return gin.H{
		"id":         v.ID,
		"poll_id":    v.PollID,
		"group_id":   v.GroupID,
		"option_id":  v.OptionID,
		"user_id":    v.UserID,
		"updated_at": v.UpdatedAt,
	}
}

// GoalView renders the shared fields of a campaign or payment request.
func GoalView(id uint64, g *models.FundingGoal) gin.H {
	return gin.H{
		"id":          id,
		"title":       g.Title,
		"description": g.Description,
		"goal_amount": g.GoalAmount,
		"amount":      g.Amount,
		"status":      g.Status,
		"due_date":    g.DueDate,
		"created_by":  g.CreatedBy,
		"closed_at":   g.ClosedAt,
	}
}

// SubmissionView renders the shared fields of a contribution or payment report.
func SubmissionView(id, parentID uint64, parentKey string, s *models.FundingSubmission) gin.H {
	return gin.H{
		"id":           id,
		parentKey:      parentID,
		"group_id":     s.GroupID,
		"submitted_by": s.SubmittedBy,
		"amount":       s.Amount,
		"method":       s.Method,
		"reference":    s.Reference,
		"paid_at":      s.PaidAt,
		"note":         s.Note,
		"status":       s.Status,
		"confirmed_by": s.ConfirmedBy,
		"reviewed_at":  s.ReviewedAt,
	}
}

// EventView renders an event.
func EventView(e *models.Event) gin.H {
	return gin.H{
		"id":          e.ID,
		"title":       e.Title,
		"description": e.Description,
		"location":    e.Location,
		"starts_at":   e.StartsAt,
		"ends_at":     e.EndsAt,
		"created_by":  e.CreatedBy,
	}
}

// PostView renders a post.
func PostView(p *models.Post) gin.H {
	return gin.H{
		"id":           p.ID,
		"title":        p.Title,
		"body":         p.Body,
		"status":       p.Status,
		"published_at": p.PublishedAt,
		"author_id":    p.AuthorID,
		"created_at":   p.CreatedAt,
		"updated_at":   p.UpdatedAt,
	}
}

// ActivityView renders an activity log row.
func ActivityView(a *models.ActivityLog) gin.H {
	return gin.H{
		"id":          a.ID,
		"actor_id":    a.ActorID,
		"entity_type": a.EntityType,
		"entity_id":   a.EntityID,
		"action":      a.Action,
		"details":     a.Details,
		"created_at":  a.CreatedAt,
	}
}

// TOTPView renders a pending TOTP enrollment.
func TOTPView(e *security.TOTPEnrollment) gin.H {
	return gin.H{"secret": e.Secret, "otpauth_url": e.URL, "qr_image": e.QRImage}
}

// Views maps each element of items through view.
func Views[T any](items []T, view func(*T) gin.H) []gin.H {
	out := make([]gin.H, 0, len(items))
	for i := range items {
		out = append(out, view(&items[i]))
	}
	return out
}

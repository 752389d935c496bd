// Package policy contains the pure access-control decisions for HowUFeel.
// Services consult it before every write and every sensitive read, so the
// rules hold regardless of which handler or consumer triggered the call.
//
// All decisions are exhaustive switches over the closed models.Role enum;
// adding a role without updating a switch here is a bug, not a silent allow.
package policy

import (
	"unicode/utf8"

	"github.com/howufeel/howufeel/internal/models"
)

const (
	MinUserNameLen = 3
	MaxUserNameLen = 20

	MinGroupNameLen = 3
	MaxGroupNameLen = 50

	JoinCodeLen = 6

	MinRatingValue = 1
	MaxRatingValue = 10
	MaxNoteLen     = 500
)

// Membership is the caller's membership in the group under decision.
// A nil Membership means the caller is not a member at all.
type Membership struct {
	UserID uint
	Role   models.Role
}

// CanReadGroup reports whether an identity may read a group document.
// Non-members are denied, and a BANNED member keeps its membership row
// but loses read access.
func CanReadGroup(m *Membership) bool {
	if m == nil {
		return false
	}
	switch m.Role {
	case models.RoleMember, models.RoleModerator, models.RoleAdmin:
		return true
	case models.RoleBanned:
		return false
	default:
		return false
	}
}

// CanUpdateGroup reports whether an identity may update or delete a group.
// Allowed for the creator, or for a member holding the ADMIN role.
func CanUpdateGroup(callerID, creatorID uint, m *Membership) bool {
	if callerID == creatorID {
		return true
	}
	if m == nil {
		return false
	}
	switch m.Role {
	case models.RoleAdmin:
		return true
	case models.RoleModerator, models.RoleMember, models.RoleBanned:
		return false
	default:
		return false
	}
}

// CanChangeRole reports whether actor may set target's role to newRole.
//
//   - ADMIN may change any non-ADMIN member's role, but the ADMIN role
//     itself is never taken away by someone else.
//   - MODERATOR may only act on MEMBER-role targets, and may only move
//     them between MEMBER and BANNED.
//   - ADMIN cannot be assigned here; ownership transfer goes through the
//     service so the one-admin invariant is kept in a single transaction.
func CanChangeRole(actor, target *Membership, newRole models.Role) bool {
	if actor == nil || target == nil || !newRole.Valid() {
		return false
	}
	if actor.UserID == target.UserID {
		return false // own role never changed through this path
	}
	if target.Role == models.RoleAdmin {
		return false
	}
	switch actor.Role {
	case models.RoleAdmin:
		return newRole != models.RoleAdmin
	case models.RoleModerator:
		if target.Role != models.RoleMember {
			return false
		}
		return newRole == models.RoleMember || newRole == models.RoleBanned
	case models.RoleMember, models.RoleBanned:
		return false
	default:
		return false
	}
}

// CanRemoveMember reports whether actor may remove target from the group.
// Self-removal (leaving) is always allowed; otherwise the same actor
// constraints as role changes apply.
func CanRemoveMember(actor, target *Membership) bool {
	if actor == nil || target == nil {
		return false
	}
	if actor.UserID == target.UserID {
		return true
	}
	if target.Role == models.RoleAdmin {
		return false
	}
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleModerator:
		return target.Role == models.RoleMember
	case models.RoleMember, models.RoleBanned:
		return false
	default:
		return false
	}
}

// CanDeleteRating reports whether an identity may delete a rating.
// Only the group's ADMIN or a MODERATOR may; the rating's own author may
// not, and nobody may ever update one.
func CanDeleteRating(m *Membership) bool {
	if m == nil {
		return false
	}
	switch m.Role {
	case models.RoleAdmin, models.RoleModerator:
		return true
	case models.RoleMember, models.RoleBanned:
		return false
	default:
		return false
	}
}

// RatingCreate is the input to the rating create decision.
type RatingCreate struct {
	AuthorID   uint   // identity embedded in the rating
	CallerID   uint   // authenticated identity
	Value      int
	Note       string
	RatingDate string // YYYY-MM-DD
	Today      string // YYYY-MM-DD, server clock
}

// CanCreateRating validates a rating create against the group membership
// and the data-shape rules: own identity only, current date only, value in
// [1,10], note at most 500 characters.
func CanCreateRating(m *Membership, rc RatingCreate) bool {
	if !CanReadGroup(m) {
		return false
	}
	if rc.AuthorID != rc.CallerID || m.UserID != rc.CallerID {
		return false
	}
	if rc.RatingDate != rc.Today {
		return false
	}
	if rc.Value < MinRatingValue || rc.Value > MaxRatingValue {
		return false
	}
	return utf8.RuneCountInString(rc.Note) <= MaxNoteLen
}

// ValidUserName checks the username shape rule shared by signup and
// profile update.
func ValidUserName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= MinUserNameLen && n <= MaxUserNameLen
}

// ValidGroupName checks the group name length rule.
func ValidGroupName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= MinGroupNameLen && n <= MaxGroupNameLen
}

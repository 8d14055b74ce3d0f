package authz

import (
	"context"
	"log/slog"
	"strings"

	"github.com/campushub/campus-forum/internal"
	groupmodel "github.com/campushub/campus-forum/internal/core/datamodel/group"
	usermodel "github.com/campushub/campus-forum/internal/core/datamodel/user"
)

// UserDirectory looks up persisted user records. Implementations return
// (nil, nil) when no record matches.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*usermodel.User, error)
	GetByEmail(ctx context.Context, email string) (*usermodel.User, error)
}

// GroupDirectory returns every group whose member set contains the user.
type GroupDirectory interface {
	GetUserGroups(ctx context.Context, userID string) ([]*groupmodel.Group, error)
}

// Resolver derives a caller's global role from the session, the user store,
// and the administrator email allow-list. Resolution is total: every lookup
// failure degrades to the next step in the chain, never to an error.
type Resolver struct {
	users       UserDirectory
	adminEmails []string
	logger      *slog.Logger
}

func NewResolver(users UserDirectory, adminEmails []string, logger *slog.Logger) *Resolver {
	lowered := make([]string, 0, len(adminEmails))
	for _, e := range adminEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			lowered = append(lowered, e)
		}
	}
	return &Resolver{users: users, adminEmails: lowered, logger: logger}
}

// ResolveRole resolves the caller's role. Priority order, first match wins:
//  1. no authenticated user: guest
//  2. session carries a valid role: that role
//  3. persisted user record by id, then by email (case-insensitive): its
//     role; a record with an empty role field means member
//  4. email in the administrator allow-list: administrator
//  5. member
func (r *Resolver) ResolveRole(ctx context.Context, session *internal.Session) Role {
	if session == nil || session.User == nil || session.User.ID == "" {
		return RoleGuest
	}

	if role, ok := ParseRole(session.User.Role); ok && session.User.Role != "" {
		return role
	}

	if role, found := r.lookupPersistedRole(ctx, session.User.ID, session.User.Email); found {
		return role
	}

	email := strings.ToLower(session.User.Email)
	if email != "" {
		for _, admin := range r.adminEmails {
			if admin == email {
				return RoleAdministrator
			}
		}
	}

	return RoleMember
}

// lookupPersistedRole reads the role off a stored user record. Lookup errors
// are swallowed and treated as not-found so the chain can continue; a record
// with an invalid role value is treated the same way.
func (r *Resolver) lookupPersistedRole(ctx context.Context, userID, email string) (Role, bool) {
	if userID != "" {
		u, err := r.users.GetByID(ctx, userID)
		if err != nil {
			r.logger.Warn("role lookup by id failed", "user_id", userID, "error", err)
		} else if u != nil {
			return roleFromRecord(u)
		}
	}

	if email != "" {
		u, err := r.users.GetByEmail(ctx, email)
		if err != nil {
			r.logger.Warn("role lookup by email failed", "email", email, "error", err)
		} else if u != nil {
			return roleFromRecord(u)
		}
	}

	return RoleGuest, false
}

func roleFromRecord(u *usermodel.User) (Role, bool) {
	if u.Role == "" {
		return RoleMember, true
	}
	if role, ok := ParseRole(u.Role); ok {
		return role, true
	}
	// invalid stored value: fall through to the remaining chain steps
	return RoleGuest, false
}

package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/masterchelly/microsites/config"
	"github.com/masterchelly/microsites/errs"
	"github.com/masterchelly/microsites/models"
)

// RoleStore reads and writes the user_roles table.
type RoleStore interface {
	HasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error)
	Grant(ctx context.Context, userID uuid.UUID, role string) error
}

// Gate decides whether a signed-in user may use the admin dashboard.
//
// With a non-empty allow-list the e-mail address alone decides. With an empty
// allow-list a user_roles row with role admin is required.
type Gate struct {
	cfg   config.AppConfig
	roles RoleStore
}

func NewGate(cfg config.AppConfig, roles RoleStore) *Gate {
	return &Gate{cfg: cfg, roles: roles}
}

func (g *Gate) IsAdmin(ctx context.Context, user User) (bool, error) {
	if len(g.cfg.AdminEmails) > 0 {
		return g.cfg.IsAdminEmail(user.Email), nil
	}
	return g.roles.HasRole(ctx, user.ID, models.RoleAdmin)
}

// Require returns a 403 error unless user is an admin.
func (g *Gate) Require(ctx context.Context, user User) error {
	ok, err := g.IsAdmin(ctx, user)
	if err != nil {
		return errs.NewDatabaseError("check", "user role", err)
	}
	if !ok {
		return errs.NewNotAdminError()
	}
	return nil
}

// MaySignUp reports whether email is allowed to create an account.
func (g *Gate) MaySignUp(email string) bool {
	return len(g.cfg.AdminEmails) == 0 || g.cfg.IsAdminEmail(email)
}

// Enroll records the admin role for a freshly signed-up allow-listed user.
func (g *Gate) Enroll(ctx context.Context, user User) error {
	if !g.cfg.IsAdminEmail(user.Email) {
		return nil
	}
	if err := g.roles.Grant(ctx, user.ID, models.RoleAdmin); err != nil {
		return errs.NewDatabaseError("grant", "user role", err)
	}
	log.Info().Str("userID", user.ID.String()).Msg("granted admin role")
	return nil
}

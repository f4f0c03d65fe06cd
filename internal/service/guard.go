package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/hostel-buddy/internal/model"
	"github.com/iliyamo/hostel-buddy/internal/repository"
	"github.com/iliyamo/hostel-buddy/internal/utils"
)

// Identity is the authenticated caller of a request.  It is produced only
// by Guard.Authenticate and is never built from client-supplied fields.
type Identity struct {
	UserID   string
	Role     model.Role
	Email    string
	FullName string
}

// IsZero reports whether no caller was resolved.
func (i Identity) IsZero() bool { return i.UserID == "" }

var errMissingIdentity = fail(ErrUnauthenticated, "authentication required")

// Guard turns an Authorization header into an Identity and checks roles.
// The role always comes from the stored user, not from the token.
type Guard struct {
	tokens *utils.TokenService
	users  UserStore
}

func NewGuard(tokens *utils.TokenService, users UserStore) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// Authenticate resolves "Bearer <token>" to the calling user.
func (g *Guard) Authenticate(ctx context.Context, header string) (Identity, error) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
		return Identity{}, fail(ErrUnauthenticated, "missing bearer token")
	}
	userID, err := g.tokens.Verify(strings.TrimSpace(raw))
	if err != nil {
		if errors.Is(err, utils.ErrExpiredToken) {
			return Identity{}, fail(ErrUnauthenticated, "token expired")
		}
		return Identity{}, fail(ErrUnauthenticated, "invalid token")
	}
	u, err := g.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Identity{}, fail(ErrUnauthenticated, "invalid token")
		}
		return Identity{}, persistence("load token subject", err)
	}
	return Identity{UserID: u.ID, Role: u.Role, Email: u.Email, FullName: u.FullName}, nil
}

// Authorize fails with ErrForbidden unless who holds one of roles.
func (g *Guard) Authorize(who Identity, roles ...model.Role) error {
	return authorize(who, roles...)
}

func authorize(who Identity, roles ...model.Role) error {
	if who.IsZero() {
		return errMissingIdentity
	}
	for _, r := range roles {
		if who.Role == r {
			return nil
		}
	}
	return fail(ErrForbidden, "this action is not allowed for role %s", who.Role)
}

package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"dispatchboard/internal/domain"
	"dispatchboard/internal/engine/auth"
	"dispatchboard/internal/events"
	"dispatchboard/internal/repo"
)

// UserCreateOptions are parameters for adding a user.
type UserCreateOptions struct {
	ID    string
	Name  string
	Email string
	Role  domain.Role
}

func (e Engine) CreateUser(ctx context.Context, actor domain.User, opts UserCreateOptions) (domain.User, error) {
	if err := auth.Require(actor, auth.UserManage); err != nil {
		return domain.User{}, err
	}
	return e.createUser(ctx, actor.ID, opts)
}

func (e Engine) createUser(ctx context.Context, actorID string, opts UserCreateOptions) (domain.User, error) {
	u := domain.User{
		ID:        strings.TrimSpace(opts.ID),
		Name:      strings.TrimSpace(opts.Name),
		Email:     opts.Email,
		Role:      opts.Role,
		CreatedAt: e.stamp(),
	}
	if u.Name == "" {
		return domain.User{}, ValidationError{Field: "name", Message: "name is required"}
	}
	if !u.Role.Valid() {
		return domain.User{}, ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", u.Role)}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	err := e.Repo.WithTx(ctx, func(tx *sql.Tx) error {
		if err := e.Repo.InsertUser(ctx, tx, u); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		return e.Events.Append(ctx, tx, events.UserCreated, "user", u.ID, actorID, events.EventPayload{"role": u.Role})
	})
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// EnsureAdmin creates the bootstrap administrator when missing.
func (e Engine) EnsureAdmin(ctx context.Context, id, name string) (domain.User, error) {
	u, err := e.Repo.GetUser(ctx, id)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return domain.User{}, err
	}
	if name == "" {
		name = id
	}
	return e.createUser(ctx, id, UserCreateOptions{ID: id, Name: name, Role: domain.RoleAdmin})
}

// User resolves an authenticated principal.
func (e Engine) User(ctx context.Context, id string) (domain.User, error) {
	return e.Repo.GetUser(ctx, id)
}

func (e Engine) ListUsers(ctx context.Context, actor domain.User) ([]domain.User, error) {
	if err := auth.Require(actor, auth.UserManage); err != nil {
		return nil, err
	}
	return e.Repo.ListUsers(ctx)
}

// CreateAPIKey issues a key for userID. Users may issue keys for themselves;
// admins for anyone. The raw key is returned once and only its hash is kept.
func (e Engine) CreateAPIKey(ctx context.Context, actor domain.User, userID, name string) (string, domain.APIKey, error) {
	if actor.ID != userID {
		if err := auth.Require(actor, auth.UserManage); err != nil {
			return "", domain.APIKey{}, err
		}
	}
	if _, err := e.Repo.GetUser(ctx, userID); err != nil {
		return "", domain.APIKey{}, err
	}
	raw := "dk_" + strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	key := domain.APIKey{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		KeyHash:   repo.HashAPIKey(raw),
		CreatedAt: e.stamp(),
	}
	err := e.Repo.WithTx(ctx, func(tx *sql.Tx) error {
		if err := e.Repo.InsertAPIKey(ctx, tx, key); err != nil {
			return fmt.Errorf("insert api key: %w", err)
		}
		return e.Events.Append(ctx, tx, events.APIKeyCreated, "user", userID, actor.ID, events.EventPayload{"key_id": key.ID, "name": name})
	})
	if err != nil {
		return "", domain.APIKey{}, err
	}
	return raw, key, nil
}

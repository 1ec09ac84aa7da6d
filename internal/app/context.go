package app

import (
	"context"
	"database/sql"
	"fmt"

	"dispatchboard/internal/config"
	"dispatchboard/internal/db"
	"dispatchboard/internal/domain"
	"dispatchboard/internal/engine"
	"dispatchboard/internal/migrate"
)

// DefaultAdminID is the user seeded by Open on a fresh workspace.
const DefaultAdminID = "admin"

// Context is an opened workspace: migrated database, loaded config and the
// engine over both.
type Context struct {
	Workspace string
	DB        *sql.DB
	Config    *config.Config
	Engine    engine.Engine
}

// Open opens the workspace database, applies migrations, loads dispatch.yml
// (defaults when absent) and makes sure an administrator exists.
func Open(ctx context.Context, workspace string) (*Context, error) {
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := migrate.MigrateContext(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		conn.Close()
		return nil, err
	}
	eng := engine.New(conn, cfg)
	if _, err := eng.EnsureAdmin(ctx, DefaultAdminID, "Administrator"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	return &Context{Workspace: workspace, DB: conn, Config: cfg, Engine: eng}, nil
}

func (c *Context) Close() error { return c.DB.Close() }

// ResolveUser returns the acting user for id, defaulting to the seeded admin.
func (c *Context) ResolveUser(ctx context.Context, id string) (domain.User, error) {
	if id == "" {
		id = DefaultAdminID
	}
	u, err := c.Engine.User(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("user %s: %w", id, err)
	}
	return u, nil
}

// Session binds the engine to the acting user.
func (c *Context) Session(u domain.User) engine.Session {
	return engine.Session{Engine: c.Engine, User: u}
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/viper"

	"dispatchboard/internal/app"
	"dispatchboard/internal/config"
	"dispatchboard/internal/db"
	"dispatchboard/internal/domain"
	"dispatchboard/internal/engine"
	"dispatchboard/internal/repo"
	"dispatchboard/internal/schedule"
	dispatchsdk "dispatchboard/sdk/go"
)

// backend is what the commands run against: the local workspace database or
// a remote server. Both back a schedule view.
type backend interface {
	schedule.Store
	Actor() domain.User
	ScheduleOptions() schedule.Options
	CreateTechnician(ctx context.Context, t domain.Technician) (domain.Technician, error)
	CreateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error)
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	IssueAPIKey(ctx context.Context, userID, name string) (string, error)
	RecentEvents(ctx context.Context, limit int, f eventFilter) ([]domain.Event, error)
}

type eventFilter = repo.EventFilters

type localBackend struct {
	engine.Session
	cfg *config.Config
}

func (b localBackend) Actor() domain.User { return b.User }

func (b localBackend) ScheduleOptions() schedule.Options {
	return schedule.OptionsFromConfig(b.cfg.Schedule)
}

func (b localBackend) CreateTechnician(ctx context.Context, t domain.Technician) (domain.Technician, error) {
	return b.Engine.CreateTechnician(ctx, b.User, engine.TechnicianCreateOptions{
		ID:       t.ID,
		Name:     t.Name,
		Email:    t.Email,
		Phone:    t.Phone,
		Skills:   t.Skills,
		Status:   t.Status,
		Location: t.Location,
	})
}

func (b localBackend) CreateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	return b.Engine.CreateCustomer(ctx, b.User, c)
}

func (b localBackend) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	return b.Engine.CreateUser(ctx, b.User, engine.UserCreateOptions{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
}

func (b localBackend) IssueAPIKey(ctx context.Context, userID, name string) (string, error) {
	raw, _, err := b.Engine.CreateAPIKey(ctx, b.User, userID, name)
	return raw, err
}

func (b localBackend) RecentEvents(ctx context.Context, limit int, f eventFilter) ([]domain.Event, error) {
	return b.Engine.ListEvents(ctx, b.User, limit, 0, f)
}

type remoteBackend struct {
	*dispatchsdk.Client
	me  domain.User
	cfg *config.Config
}

func (b remoteBackend) Actor() domain.User { return b.me }

func (b remoteBackend) ScheduleOptions() schedule.Options {
	return schedule.OptionsFromConfig(b.cfg.Schedule)
}

func (b remoteBackend) IssueAPIKey(ctx context.Context, userID, name string) (string, error) {
	key, err := b.Client.CreateAPIKey(ctx, userID, name)
	return key.Key, err
}

// RecentEvents filters client side; the events endpoint only pages.
func (b remoteBackend) RecentEvents(ctx context.Context, limit int, f eventFilter) ([]domain.Event, error) {
	var out []domain.Event
	cursor := ""
	for len(out) < limit {
		page, err := b.Client.EventsPage(ctx, 200, cursor)
		if err != nil {
			return nil, err
		}
		for _, evt := range page.Items {
			if (f.Type != "" && evt.Type != f.Type) ||
				(f.EntityKind != "" && evt.EntityKind != f.EntityKind) ||
				(f.EntityID != "" && evt.EntityID != f.EntityID) {
				continue
			}
			out = append(out, domain.Event{
				ID:         evt.ID,
				TS:         evt.TS,
				Type:       evt.Type,
				EntityKind: evt.EntityKind,
				EntityID:   evt.EntityID,
				ActorID:    evt.ActorID,
			})
			if len(out) == limit {
				break
			}
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return out, nil
}

// withBackend opens the backend selected by --remote and runs fn on it.
func withBackend(ctx context.Context, fn func(context.Context, backend) error) error {
	workspace := viper.GetString("workspace")
	if remote := viper.GetString("remote"); remote != "" {
		cfg, err := config.LoadOptional(workspace)
		if err != nil {
			return err
		}
		c := newRemoteClient(remote)
		me, err := c.Me(ctx)
		if err != nil {
			return fmt.Errorf("authenticate against %s: %w", remote, err)
		}
		return fn(ctx, remoteBackend{Client: c, me: me.User, cfg: cfg})
	}
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		return err
	}
	a, err := app.Open(ctx, workspace)
	if err != nil {
		return err
	}
	defer a.Close()
	u, err := a.ResolveUser(ctx, viper.GetString("user"))
	if err != nil {
		return err
	}
	return fn(ctx, localBackend{Session: a.Session(u), cfg: a.Config})
}

// newRemoteClient maps --token onto the right credential: dk_ values are API
// keys, anything else a bearer token. Without a token --user is sent as the
// development identity header.
func newRemoteClient(baseURL string) *dispatchsdk.Client {
	c := dispatchsdk.New(strings.TrimRight(baseURL, "/"))
	token := viper.GetString("token")
	switch {
	case strings.HasPrefix(token, "dk_"):
		c.APIKey = token
	case token != "":
		c.BearerToken = token
	default:
		c.UserID = viper.GetString("user")
	}
	return c
}

// openView loads a schedule view over b. Notices go to stderr so --json
// output stays clean.
func openView(ctx context.Context, b backend) (*schedule.View, error) {
	v := schedule.New(b, colorNotifier{}, b.Actor(), b.ScheduleOptions())
	if err := v.Refresh(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

type colorNotifier struct{}

func (colorNotifier) Notify(message string, kind schedule.NoticeKind) {
	c := color.New(color.FgGreen)
	if kind == schedule.NoticeError {
		c = color.New(color.FgRed)
	}
	c.Fprintln(os.Stderr, message)
}

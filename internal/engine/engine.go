package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dispatchboard/internal/config"
	"dispatchboard/internal/domain"
	"dispatchboard/internal/engine/auth"
	"dispatchboard/internal/events"
	"dispatchboard/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) stamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func validateWorkOrder(wo domain.WorkOrder) error {
	switch {
	case strings.TrimSpace(wo.Title) == "":
		return ValidationError{Field: "title", Message: "title is required"}
	case wo.ScheduledStart.IsZero() || wo.ScheduledEnd.IsZero():
		return ValidationError{Field: "scheduled_start", Message: "schedule window is required"}
	case !wo.ScheduledEnd.After(wo.ScheduledStart):
		return ValidationError{Field: "scheduled_end", Message: "end must be after start"}
	case !wo.Priority.Valid():
		return ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", wo.Priority)}
	case !wo.Status.Valid():
		return ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", wo.Status)}
	case wo.Price < 0:
		return ValidationError{Field: "price", Message: "price cannot be negative"}
	case wo.EstimatedDuration < 0:
		return ValidationError{Field: "estimated_duration", Message: "duration cannot be negative"}
	}
	seen := map[string]bool{}
	for _, id := range wo.TechnicianIDs {
		if strings.TrimSpace(id) == "" {
			return ValidationError{Field: "technician_ids", Message: "empty technician id"}
		}
		if seen[id] {
			return ValidationError{Field: "technician_ids", Message: fmt.Sprintf("technician %s listed twice", id)}
		}
		seen[id] = true
	}
	return nil
}

func (e Engine) ensureCustomer(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if _, err := e.Repo.GetCustomer(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ValidationError{Field: "customer_id", Message: fmt.Sprintf("customer %s not found", id)}
		}
		return err
	}
	return nil
}

// CreateWorkOrder stores a new work order. Missing priority and status
// default to Medium and New; a missing estimate is taken from the window.
func (e Engine) CreateWorkOrder(ctx context.Context, actor domain.User, wo domain.WorkOrder) (domain.WorkOrder, error) {
	if err := auth.Require(actor, auth.WorkOrderCreate); err != nil {
		return domain.WorkOrder{}, err
	}
	return e.createWorkOrder(ctx, actor, wo, events.WorkOrderCreated, nil)
}

func (e Engine) createWorkOrder(ctx context.Context, actor domain.User, wo domain.WorkOrder, evtType string, extra events.EventPayload) (domain.WorkOrder, error) {
	wo = wo.Clone()
	wo.Title = strings.TrimSpace(wo.Title)
	if wo.Priority == "" {
		wo.Priority = domain.PriorityMedium
	}
	if wo.Status == "" {
		wo.Status = domain.StatusNew
	}
	if wo.TechnicianIDs == nil {
		wo.TechnicianIDs = []string{}
	}
	if wo.EstimatedDuration == 0 && wo.ScheduledEnd.After(wo.ScheduledStart) {
		wo.EstimatedDuration = int(wo.Duration() / time.Minute)
	}
	if err := validateWorkOrder(wo); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := e.ensureCustomer(ctx, wo.CustomerID); err != nil {
		return domain.WorkOrder{}, err
	}
	if wo.ID == "" {
		wo.ID = uuid.NewString()
	}
	now := e.stamp()
	wo.CreatedAt, wo.UpdatedAt = now, now

	payload := events.EventPayload{
		"title":          wo.Title,
		"status":         wo.Status,
		"technician_ids": wo.TechnicianIDs,
		"start":          wo.ScheduledStart.UTC().Format(time.RFC3339),
	}
	for k, v := range extra {
		payload[k] = v
	}
	err := e.Repo.WithTx(ctx, func(tx *sql.Tx) error {
		if err := e.Repo.InsertWorkOrder(ctx, tx, wo); err != nil {
			return fmt.Errorf("insert work order: %w", err)
		}
		return e.Events.Append(ctx, tx, evtType, "work_order", wo.ID, actor.ID, payload)
	})
	if err != nil {
		return domain.WorkOrder{}, err
	}
	return wo, nil
}

// UpdateWorkOrder applies patch. Technicians may only touch work orders
// assigned to them.
func (e Engine) UpdateWorkOrder(ctx context.Context, actor domain.User, id string, patch domain.WorkOrderPatch) (domain.WorkOrder, error) {
	var updated domain.WorkOrder
	err := e.Repo.WithTx(ctx, func(tx *sql.Tx) error {
		current, err := e.Repo.GetWorkOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := auth.CanEditWorkOrder(actor, current); err != nil {
			return err
		}
		next := patch.Apply(current)
		next.Title = strings.TrimSpace(next.Title)
		if err := validateWorkOrder(next); err != nil {
			return err
		}
		if patch.CustomerID != nil && *patch.CustomerID != current.CustomerID {
			if *patch.CustomerID != "" {
				var found string
				err := tx.QueryRowContext(ctx, `SELECT id FROM customers WHERE id=?`, *patch.CustomerID).Scan(&found)
				if errors.Is(err, sql.ErrNoRows) {
					return ValidationError{Field: "customer_id", Message: fmt.Sprintf("customer %s not found", *patch.CustomerID)}
				}
				if err != nil {
					return err
				}
			}
		}
		next.UpdatedAt = e.stamp()
		if err := e.Repo.UpdateWorkOrder(ctx, tx, next); err != nil {
			return fmt.Errorf("update work order: %w", err)
		}
		changed := changedFields(current, next)
		if err := e.Events.Append(ctx, tx, events.WorkOrderUpdated, "work_order", id, actor.ID, events.EventPayload{
			"changed": changed,
			"status":  next.Status,
		}); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return domain.WorkOrder{}, err
	}
	return updated, nil
}

func changedFields(a, b domain.WorkOrder) []string {
	var out []string
	add := func(cond bool, name string) {
		if cond {
			out = append(out, name)
		}
	}
	add(a.Title != b.Title, "title")
	add(a.Description != b.Description, "description")
	add(a.ServiceType != b.ServiceType, "service_type")
	add(a.CustomerID != b.CustomerID, "customer_id")
	add(strings.Join(a.TechnicianIDs, ",") != strings.Join(b.TechnicianIDs, ","), "technician_ids")
	add(!a.ScheduledStart.Equal(b.ScheduledStart), "scheduled_start")
	add(!a.ScheduledEnd.Equal(b.ScheduledEnd), "scheduled_end")
	add(a.Priority != b.Priority, "priority")
	add(a.Status != b.Status, "status")
	add(a.EstimatedDuration != b.EstimatedDuration, "estimated_duration")
	add(a.Location != b.Location, "location")
	add(a.Price != b.Price, "price")
	if out == nil {
		out = []string{}
	}
	return out
}

func (e Engine) DeleteWorkOrder(ctx context.Context, actor domain.User, id string) error {
	if err := auth.Require(actor, auth.WorkOrderDelete); err != nil {
		return err
	}
	return e.Repo.WithTx(ctx, func(tx *sql.Tx) error {
		current, err := e.Repo.GetWorkOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := e.Repo.DeleteWorkOrder(ctx, tx, id); err != nil {
			return err
		}
		return e.Events.Append(ctx, tx, events.WorkOrderDeleted, "work_order", id, actor.ID, events.EventPayload{"title": current.Title})
	})
}

// DuplicateWorkOrder copies id into a new work order with status New.
func (e Engine) DuplicateWorkOrder(ctx context.Context, actor domain.User, id string) (domain.WorkOrder, error) {
	if err := auth.Require(actor, auth.WorkOrderDuplicate); err != nil {
		return domain.WorkOrder{}, err
	}
	src, err := e.Repo.GetWorkOrder(ctx, nil, id)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	return e.createWorkOrder(ctx, actor, src.Duplicate(), events.WorkOrderDuplicated, events.EventPayload{"source_id": id})
}

func (e Engine) GetWorkOrder(ctx context.Context, actor domain.User, id string) (domain.WorkOrder, error) {
	if err := auth.Require(actor, auth.WorkOrderRead); err != nil {
		return domain.WorkOrder{}, err
	}
	return e.Repo.GetWorkOrder(ctx, nil, id)
}

func (e Engine) ListWorkOrders(ctx context.Context, actor domain.User, f repo.WorkOrderFilters) ([]domain.WorkOrder, error) {
	if err := auth.Require(actor, auth.WorkOrderRead); err != nil {
		return nil, err
	}
	return e.Repo.ListWorkOrders(ctx, f)
}

// TechnicianCreateOptions are parameters for adding a technician.
type TechnicianCreateOptions struct {
	ID       string
	Name     string
	Email    string
	Phone    string
	Skills   []string
	Status   domain.TechnicianStatus
	Location domain.Location
}

func (e Engine) CreateTechnician(ctx context.Context, actor domain.User, opts TechnicianCreateOptions) (domain.Technician, error) {
	if err := auth.Require(actor, auth.TechnicianManage); err != nil {
		return domain.Technician{}, err
	}
	if strings.TrimSpace(opts.Name) == "" {
		return domain.Technician{}, ValidationError{Field: "name", Message: "name is required"}
	}
	status := opts.Status
	if status == "" {
		status = domain.TechnicianAvailable
	}
	switch status {
	case domain.TechnicianAvailable, domain.TechnicianBusy, domain.TechnicianOffline:
	default:
		return domain.Technician{}, ValidationError{Field: "status", Message: fmt.Sprintf("unknown technician status %q", status)}
	}
	t := domain.Technician{
		ID:       opts.ID,
		Name:     strings.TrimSpace(opts.Name),
		Email:    opts.Email,
		Phone:    opts.Phone,
		Skills:   opts.Skills,
		Status:   status,
		Location: opts.Location,
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Skills == nil {
		t.Skills = []string{}
	}
	err := e.Repo.WithTx(ctx, func(tx *sql.Tx) error {
		if err := e.Repo.InsertTechnician(ctx, tx, t, e.stamp()); err != nil {
			return fmt.Errorf("insert technician: %w", err)
		}
		return e.Events.Append(ctx, tx, events.TechnicianCreated, "technician", t.ID, actor.ID, events.EventPayload{"name": t.Name})
	})
	if err != nil {
		return domain.Technician{}, err
	}
	return t, nil
}

func (e Engine) ListTechnicians(ctx context.Context, actor domain.User) ([]domain.Technician, error) {
	if err := auth.Require(actor, auth.TechnicianRead); err != nil {
		return nil, err
	}
	return e.Repo.ListTechnicians(ctx)
}

func (e Engine) GetTechnician(ctx context.Context, actor domain.User, id string) (domain.Technician, error) {
	if err := auth.Require(actor, auth.TechnicianRead); err != nil {
		return domain.Technician{}, err
	}
	return e.Repo.GetTechnician(ctx, id)
}

func (e Engine) CreateCustomer(ctx context.Context, actor domain.User, c domain.Customer) (domain.Customer, error) {
	if err := auth.Require(actor, auth.CustomerManage); err != nil {
		return domain.Customer{}, err
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return domain.Customer{}, ValidationError{Field: "name", Message: "name is required"}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = e.stamp()
	err := e.Repo.WithTx(ctx, func(tx *sql.Tx) error {
		if err := e.Repo.InsertCustomer(ctx, tx, c); err != nil {
			return fmt.Errorf("insert customer: %w", err)
		}
		return e.Events.Append(ctx, tx, events.CustomerCreated, "customer", c.ID, actor.ID, events.EventPayload{"name": c.Name})
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return c, nil
}

func (e Engine) ListCustomers(ctx context.Context, actor domain.User) ([]domain.Customer, error) {
	if err := auth.Require(actor, auth.CustomerRead); err != nil {
		return nil, err
	}
	return e.Repo.ListCustomers(ctx)
}

// ListEvents returns recent events, newest first.
func (e Engine) ListEvents(ctx context.Context, actor domain.User, limit int, cursor int64, f repo.EventFilters) ([]domain.Event, error) {
	if err := auth.Require(actor, auth.EventRead); err != nil {
		return nil, err
	}
	return e.Repo.LatestEvents(ctx, limit, cursor, f)
}

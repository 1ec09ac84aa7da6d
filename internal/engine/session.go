package engine

import (
	"context"

	"dispatchboard/internal/domain"
	"dispatchboard/internal/repo"
	"dispatchboard/internal/schedule"
)

// Session binds an Engine to an acting user so it can back a schedule view.
type Session struct {
	Engine Engine
	User   domain.User
}

var _ schedule.Store = Session{}

func (s Session) ListWorkOrders(ctx context.Context) ([]domain.WorkOrder, error) {
	return s.Engine.ListWorkOrders(ctx, s.User, repo.WorkOrderFilters{})
}

func (s Session) ListTechnicians(ctx context.Context) ([]domain.Technician, error) {
	return s.Engine.ListTechnicians(ctx, s.User)
}

func (s Session) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.Engine.ListCustomers(ctx, s.User)
}

func (s Session) UpdateWorkOrder(ctx context.Context, id string, patch domain.WorkOrderPatch) (domain.WorkOrder, error) {
	return s.Engine.UpdateWorkOrder(ctx, s.User, id, patch)
}

func (s Session) DeleteWorkOrder(ctx context.Context, id string) error {
	return s.Engine.DeleteWorkOrder(ctx, s.User, id)
}

func (s Session) CreateWorkOrder(ctx context.Context, wo domain.WorkOrder) (domain.WorkOrder, error) {
	return s.Engine.CreateWorkOrder(ctx, s.User, wo)
}

package auth

import (
	"fmt"
	"slices"

	"dispatchboard/internal/domain"
)

// Permissions checked by the engine.
const (
	WorkOrderRead      = "workorder.read"
	WorkOrderCreate    = "workorder.create"
	WorkOrderUpdate    = "workorder.update"
	WorkOrderUpdateAny = "workorder.update.any"
	WorkOrderDelete    = "workorder.delete"
	WorkOrderDuplicate = "workorder.duplicate"
	TechnicianRead     = "technician.read"
	TechnicianManage   = "technician.manage"
	CustomerRead       = "customer.read"
	CustomerManage     = "customer.manage"
	UserManage         = "user.manage"
	EventRead          = "event.read"
)

// ForbiddenError indicates missing permission.
type ForbiddenError struct {
	Permission string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("permission %s required", e.Permission)
}

var dispatchPermissions = []string{
	WorkOrderRead, WorkOrderCreate, WorkOrderUpdate, WorkOrderUpdateAny, WorkOrderDelete, WorkOrderDuplicate,
	TechnicianRead, TechnicianManage, CustomerRead, CustomerManage, EventRead,
}

var rolePermissions = map[domain.Role][]string{
	domain.RoleAdmin:      append(slices.Clone(dispatchPermissions), UserManage),
	domain.RoleManager:    dispatchPermissions,
	domain.RoleDispatcher: dispatchPermissions,
	// Technicians may update only work orders assigned to them.
	domain.RoleTechnician: {WorkOrderRead, WorkOrderUpdate, TechnicianRead, CustomerRead},
}

// Permissions returns the permissions granted to role.
func Permissions(role domain.Role) []string {
	return slices.Clone(rolePermissions[role])
}

// Can reports whether role grants perm.
func Can(role domain.Role, perm string) bool {
	return slices.Contains(rolePermissions[role], perm)
}

// Require returns ForbiddenError when u lacks perm.
func Require(u domain.User, perm string) error {
	if !Can(u.Role, perm) {
		return ForbiddenError{Permission: perm}
	}
	return nil
}

// CanEditWorkOrder reports whether u may update wo.
func CanEditWorkOrder(u domain.User, wo domain.WorkOrder) error {
	if err := Require(u, WorkOrderUpdate); err != nil {
		return err
	}
	if Can(u.Role, WorkOrderUpdateAny) || wo.AssignedTo(u.ID) {
		return nil
	}
	return ForbiddenError{Permission: WorkOrderUpdateAny}
}

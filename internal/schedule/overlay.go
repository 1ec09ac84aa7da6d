package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dispatchboard/internal/domain"
	"dispatchboard/internal/timegrid"
)

// openOverlay shows o and closes the context menu. Only one overlay exists
// at a time because ViewState holds a single value.
func (v *View) openOverlay(o Overlay) {
	v.state.Interaction.ContextMenu = nil
	v.state.Overlay = o
}

func (v *View) closeMenu() { v.state.Interaction.ContextMenu = nil }

// MenuActions lists the actions offered to the acting user.
func (v *View) MenuActions() []MenuAction {
	if v.isTechnician() {
		return []MenuAction{ActionEdit}
	}
	return []MenuAction{ActionEdit, ActionDuplicate, ActionDelete}
}

// OpenContextMenu opens the card menu at the pointer. Any modal is closed.
func (v *View) OpenContextMenu(id string, x, y int) error {
	if v.indexOf(id) < 0 {
		return ErrUnknownWorkOrder
	}
	v.state.Overlay = Overlay{}
	v.state.Interaction.OpenDropdown = DropdownNone
	v.state.Interaction.ContextMenu = &ContextMenu{X: x, Y: y, WorkOrderID: id, Actions: v.MenuActions()}
	return nil
}

// SelectMenuAction runs an action from the open context menu.
func (v *View) SelectMenuAction(ctx context.Context, action MenuAction) error {
	m := v.state.Interaction.ContextMenu
	if m == nil {
		return ErrWrongOverlay
	}
	if !m.Has(action) {
		return ErrNotPermitted
	}
	id := m.WorkOrderID
	v.closeMenu()
	switch action {
	case ActionEdit:
		return v.OpenEdit(id)
	case ActionDuplicate:
		_, err := v.Duplicate(ctx, id)
		return err
	case ActionDelete:
		return v.OpenDeleteConfirm(id)
	}
	return fmt.Errorf("unknown menu action %q", action)
}

// Duplicate creates a copy of id with a fresh id, status New and the title
// suffixed with " (Copy)".
func (v *View) Duplicate(ctx context.Context, id string) (domain.WorkOrder, error) {
	if v.isTechnician() {
		return domain.WorkOrder{}, ErrNotPermitted
	}
	i := v.indexOf(id)
	if i < 0 {
		return domain.WorkOrder{}, ErrUnknownWorkOrder
	}
	cp := v.orders[i].Duplicate()
	created, err := v.store.CreateWorkOrder(ctx, cp)
	if err != nil {
		v.notify.Notify("Failed to duplicate "+label(v.orders[i])+": "+err.Error(), NoticeError)
		return domain.WorkOrder{}, err
	}
	v.put(created)
	v.notify.Notify("Duplicated as "+label(created), NoticeSuccess)
	return created, nil
}

// OpenCreate opens the create modal prefilled 09:00 to 10:00 on the current
// system date with no technician preset.
func (v *View) OpenCreate() error {
	if v.isTechnician() {
		return ErrNotPermitted
	}
	start := timegrid.Combine(timegrid.Today(v.opts.Now()), 9, 0)
	v.openOverlay(Overlay{Kind: OverlayCreate, Draft: &Draft{
		ScheduledStart:    start,
		ScheduledEnd:      start.Add(time.Hour),
		Priority:          domain.PriorityMedium,
		Status:            domain.StatusNew,
		EstimatedDuration: 60,
	}})
	return nil
}

// OpenEdit opens the edit modal for an existing work order.
func (v *View) OpenEdit(id string) error {
	if v.indexOf(id) < 0 {
		return ErrUnknownWorkOrder
	}
	v.openOverlay(Overlay{Kind: OverlayEdit, WorkOrderID: id})
	return nil
}

// OpenDetail opens the read-only detail modal. Technicians may open it.
func (v *View) OpenDetail(id string) error {
	if v.indexOf(id) < 0 {
		return ErrUnknownWorkOrder
	}
	v.openOverlay(Overlay{Kind: OverlayDetail, WorkOrderID: id})
	return nil
}

// OpenDeleteConfirm asks for confirmation before deleting a single work
// order. Nothing is deleted until ConfirmDelete.
func (v *View) OpenDeleteConfirm(id string) error {
	if v.isTechnician() {
		return ErrNotPermitted
	}
	if v.indexOf(id) < 0 {
		return ErrUnknownWorkOrder
	}
	v.openOverlay(Overlay{Kind: OverlayDeleteConfirm, WorkOrderID: id, Count: 1})
	return nil
}

// OpenHelp shows the keyboard shortcut sheet.
func (v *View) OpenHelp() { v.openOverlay(Overlay{Kind: OverlayHelp}) }

// CloseOverlay closes the modal or dialog, if any.
func (v *View) CloseOverlay() { v.state.Overlay = Overlay{} }

// UpdateDraft edits the open create form in place.
func (v *View) UpdateDraft(fn func(*Draft)) error {
	if v.state.Overlay.Kind != OverlayCreate || v.state.Overlay.Draft == nil {
		return ErrWrongOverlay
	}
	fn(v.state.Overlay.Draft)
	return nil
}

// PointerTarget says what a pointer-down landed on.
type PointerTarget string

const (
	PointerElsewhere   PointerTarget = ""
	PointerContextMenu PointerTarget = "context_menu"
	PointerDropdown    PointerTarget = "dropdown"
)

// PointerDown closes the context menu and the filter dropdown unless the
// pointer landed inside them.
func (v *View) PointerDown(target PointerTarget) {
	if target != PointerContextMenu {
		v.closeMenu()
	}
	if target != PointerDropdown {
		v.state.Interaction.OpenDropdown = DropdownNone
	}
}

// Escape closes the context menu, else a delete confirmation, else the help
// sheet. It reports whether anything was closed.
func (v *View) Escape() bool {
	if v.state.Interaction.ContextMenu != nil {
		v.closeMenu()
		return true
	}
	switch v.state.Overlay.Kind {
	case OverlayDeleteConfirm, OverlayBulkDeleteConfirm, OverlayHelp:
		v.state.Overlay = Overlay{}
		return true
	}
	return false
}

// Validate checks the fields a create form requires.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ValidationError{Field: "title", Message: "title is required"}
	}
	if d.TechnicianID == "" {
		return ValidationError{Field: "technician_id", Message: "a technician is required"}
	}
	if d.ScheduledStart.IsZero() || !d.ScheduledEnd.After(d.ScheduledStart) {
		return ValidationError{Field: "scheduled_end", Message: "end must be after start"}
	}
	if d.Priority != "" && !d.Priority.Valid() {
		return ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", d.Priority)}
	}
	if d.Status != "" && !d.Status.Valid() {
		return ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", d.Status)}
	}
	if d.Price < 0 {
		return ValidationError{Field: "price", Message: "price cannot be negative"}
	}
	return nil
}

// WorkOrder converts the form to a new work order.
func (d Draft) WorkOrder() domain.WorkOrder {
	wo := domain.WorkOrder{
		Title:             strings.TrimSpace(d.Title),
		Description:       d.Description,
		ServiceType:       d.ServiceType,
		CustomerID:        d.CustomerID,
		TechnicianIDs:     []string{d.TechnicianID},
		ScheduledStart:    d.ScheduledStart,
		ScheduledEnd:      d.ScheduledEnd,
		Priority:          d.Priority,
		Status:            d.Status,
		EstimatedDuration: d.EstimatedDuration,
		Location:          d.Location,
		Price:             d.Price,
	}
	if wo.Priority == "" {
		wo.Priority = domain.PriorityMedium
	}
	if wo.Status == "" {
		wo.Status = domain.StatusNew
	}
	if wo.EstimatedDuration <= 0 {
		wo.EstimatedDuration = int(d.ScheduledEnd.Sub(d.ScheduledStart) / time.Minute)
	}
	return wo
}

// SubmitCreate validates the create form and stores it. Validation errors
// keep the modal open and make no store call.
func (v *View) SubmitCreate(ctx context.Context) (domain.WorkOrder, error) {
	o := v.state.Overlay
	if o.Kind != OverlayCreate || o.Draft == nil {
		return domain.WorkOrder{}, ErrWrongOverlay
	}
	if err := o.Draft.Validate(); err != nil {
		return domain.WorkOrder{}, err
	}
	created, err := v.store.CreateWorkOrder(ctx, o.Draft.WorkOrder())
	if err != nil {
		v.notify.Notify("Failed to create work order: "+err.Error(), NoticeError)
		return domain.WorkOrder{}, err
	}
	v.put(created)
	v.state.Overlay = Overlay{}
	v.notify.Notify("Created "+label(created), NoticeSuccess)
	return created, nil
}

// SubmitEdit sends patch for the work order in the edit modal.
func (v *View) SubmitEdit(ctx context.Context, patch domain.WorkOrderPatch) (domain.WorkOrder, error) {
	o := v.state.Overlay
	if o.Kind != OverlayEdit {
		return domain.WorkOrder{}, ErrWrongOverlay
	}
	if err := validatePatch(patch); err != nil {
		return domain.WorkOrder{}, err
	}
	updated, err := v.update(ctx, o.WorkOrderID, patch, "update")
	if err != nil {
		return domain.WorkOrder{}, err
	}
	v.state.Overlay = Overlay{}
	return updated, nil
}

// ChangeStatus updates a single work order's status, typically from the
// detail view.
func (v *View) ChangeStatus(ctx context.Context, id string, status domain.Status) (domain.WorkOrder, error) {
	if !status.Valid() {
		return domain.WorkOrder{}, ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
	}
	return v.update(ctx, id, domain.WorkOrderPatch{Status: &status}, "update status of")
}

// update applies patch optimistically and reverts it on failure.
func (v *View) update(ctx context.Context, id string, patch domain.WorkOrderPatch, verb string) (domain.WorkOrder, error) {
	i := v.indexOf(id)
	if i < 0 {
		return domain.WorkOrder{}, ErrUnknownWorkOrder
	}
	previous := v.orders[i].Clone()
	v.orders[i] = patch.Apply(previous)
	updated, err := v.store.UpdateWorkOrder(ctx, id, patch)
	if err != nil {
		v.put(previous)
		v.notify.Notify(fmt.Sprintf("Failed to %s %s: %v", verb, label(previous), err), NoticeError)
		return domain.WorkOrder{}, err
	}
	v.put(updated)
	v.notify.Notify("Updated "+label(updated), NoticeSuccess)
	return updated, nil
}

func validatePatch(p domain.WorkOrderPatch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ValidationError{Field: "title", Message: "title is required"}
	}
	if p.TechnicianIDs != nil && len(p.TechnicianIDs) == 0 {
		return ValidationError{Field: "technician_ids", Message: "a technician is required"}
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", *p.Priority)}
	}
	if p.Status != nil && !p.Status.Valid() {
		return ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", *p.Status)}
	}
	if p.ScheduledStart != nil && p.ScheduledEnd != nil && !p.ScheduledEnd.After(*p.ScheduledStart) {
		return ValidationError{Field: "scheduled_end", Message: "end must be after start"}
	}
	return nil
}

// ConfirmDelete runs whichever delete dialog is open.
func (v *View) ConfirmDelete(ctx context.Context) error {
	switch v.state.Overlay.Kind {
	case OverlayBulkDeleteConfirm:
		_, err := v.ApplyBulkDelete(ctx)
		return err
	case OverlayDeleteConfirm:
	default:
		return ErrConfirmationRequired
	}
	id := v.state.Overlay.WorkOrderID
	v.state.Overlay = Overlay{}
	name := v.labelOf(id)
	if err := v.store.DeleteWorkOrder(ctx, id); err != nil {
		v.notify.Notify(fmt.Sprintf("Failed to delete %s: %v", name, err), NoticeError)
		return err
	}
	v.remove(id)
	v.pruneSelection()
	v.notify.Notify("Deleted "+name, NoticeSuccess)
	return nil
}

package schedule

import (
	"fmt"
	"time"

	"dispatchboard/internal/domain"
	"dispatchboard/internal/filter"
	"dispatchboard/internal/timegrid"
)

// Filters is the filter bar state.
type Filters struct {
	SearchTerm    string
	TechnicianIDs []string
	Priorities    []domain.Priority
	Statuses      []domain.Status
}

// Criteria returns the work-order predicate; technician ids are not part of it.
func (f Filters) Criteria() filter.Criteria {
	return filter.Criteria{
		SearchTerm: f.SearchTerm,
		Priorities: f.Priorities,
		Statuses:   f.Statuses,
	}
}

// Selection holds the ids picked for a bulk action, in pick order.
type Selection struct {
	BulkMode bool
	IDs      []string
}

// Contains reports whether id is selected.
func (s Selection) Contains(id string) bool {
	for _, sel := range s.IDs {
		if sel == id {
			return true
		}
	}
	return false
}

// Target is a grid cell a card can be dropped on. A zero Date means the
// view's current date.
type Target struct {
	TechnicianID string
	Hour         int
	Minute       int
	Date         time.Time
}

// MenuAction is an entry of the card context menu.
type MenuAction string

const (
	ActionEdit      MenuAction = "edit"
	ActionDuplicate MenuAction = "duplicate"
	ActionDelete    MenuAction = "delete"
)

// ContextMenu is an open right-click menu.
type ContextMenu struct {
	X           int
	Y           int
	WorkOrderID string
	Actions     []MenuAction
}

// Has reports whether action is offered.
func (m ContextMenu) Has(action MenuAction) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Dropdown names the filter dropdown that is open.
type Dropdown string

const (
	DropdownNone        Dropdown = ""
	DropdownTechnicians Dropdown = "technicians"
	DropdownPriorities  Dropdown = "priorities"
	DropdownStatuses    Dropdown = "statuses"
)

// Interaction is transient pointer state, such as an active drag or an open menu.
type Interaction struct {
	DraggedID    string
	DragOrigin   *DragOrigin
	DragOver     *Target
	ContextMenu  *ContextMenu
	OpenDropdown Dropdown
}

// DragOrigin is the window captured when a drag starts.
type DragOrigin struct {
	Start         time.Time
	End           time.Time
	TechnicianIDs []string
}

// OverlayKind names the modal currently shown; at most one is open.
type OverlayKind string

const (
	OverlayNone              OverlayKind = ""
	OverlayCreate            OverlayKind = "create"
	OverlayEdit              OverlayKind = "edit"
	OverlayDetail            OverlayKind = "detail"
	OverlayDeleteConfirm     OverlayKind = "delete_confirm"
	OverlayBulkDeleteConfirm OverlayKind = "bulk_delete_confirm"
	OverlayHelp              OverlayKind = "help"
)

// Overlay is the one modal or dialog shown above the grid.
type Overlay struct {
	Kind        OverlayKind
	WorkOrderID string
	Draft       *Draft
	Count       int
}

// Open reports whether any overlay is shown.
func (o Overlay) Open() bool { return o.Kind != OverlayNone }

// Prompt is the confirmation text of delete dialogs.
func (o Overlay) Prompt() string {
	switch o.Kind {
	case OverlayDeleteConfirm:
		return "Delete this work order?"
	case OverlayBulkDeleteConfirm:
		if o.Count == 1 {
			return "Delete 1 work order?"
		}
		return fmt.Sprintf("Delete %d work orders?", o.Count)
	}
	return ""
}

// Draft is the create-modal form.
type Draft struct {
	Title             string
	Description       string
	ServiceType       string
	CustomerID        string
	TechnicianID      string
	ScheduledStart    time.Time
	ScheduledEnd      time.Time
	Priority          domain.Priority
	Status            domain.Status
	EstimatedDuration int
	Location          domain.Location
	Price             float64
}

// ViewState is the ephemeral state of one schedule view.
type ViewState struct {
	CurrentDate time.Time
	ViewMode    timegrid.ViewMode
	Filters     Filters
	Selection   Selection
	Interaction Interaction
	Overlay     Overlay

	ViewportWidth          int
	CollapsedTechnicianIDs map[string]bool
}

func (s ViewState) clone() ViewState {
	c := s
	c.Filters.TechnicianIDs = append([]string(nil), s.Filters.TechnicianIDs...)
	c.Filters.Priorities = append([]domain.Priority(nil), s.Filters.Priorities...)
	c.Filters.Statuses = append([]domain.Status(nil), s.Filters.Statuses...)
	c.Selection.IDs = append([]string(nil), s.Selection.IDs...)
	if s.Interaction.DragOrigin != nil {
		o := *s.Interaction.DragOrigin
		o.TechnicianIDs = append([]string(nil), o.TechnicianIDs...)
		c.Interaction.DragOrigin = &o
	}
	if s.Interaction.DragOver != nil {
		t := *s.Interaction.DragOver
		c.Interaction.DragOver = &t
	}
	if s.Interaction.ContextMenu != nil {
		m := *s.Interaction.ContextMenu
		m.Actions = append([]MenuAction(nil), m.Actions...)
		c.Interaction.ContextMenu = &m
	}
	if s.Overlay.Draft != nil {
		d := *s.Overlay.Draft
		c.Overlay.Draft = &d
	}
	c.CollapsedTechnicianIDs = make(map[string]bool, len(s.CollapsedTechnicianIDs))
	for k, v := range s.CollapsedTechnicianIDs {
		c.CollapsedTechnicianIDs[k] = v
	}
	return c
}

package schedule

import (
	"context"
	"time"

	"dispatchboard/internal/domain"
	"dispatchboard/internal/timegrid"
)

// DropOutcome is the terminal state of a drag.
type DropOutcome string

const (
	DroppedValid   DropOutcome = "dropped_valid"
	DroppedInvalid DropOutcome = "dropped_invalid"
	Cancelled      DropOutcome = "cancelled"
)

// Dragging reports whether a drag is in progress.
func (v *View) Dragging() bool { return v.state.Interaction.DraggedID != "" }

// BeginDrag starts dragging a placed card and captures its original window.
func (v *View) BeginDrag(id string) error {
	if v.Dragging() {
		return ErrDragInProgress
	}
	i := v.indexOf(id)
	if i < 0 {
		return ErrUnknownWorkOrder
	}
	wo := v.orders[i]
	v.closeMenu()
	v.state.Interaction.DraggedID = id
	v.state.Interaction.DragOrigin = &DragOrigin{
		Start:         wo.ScheduledStart,
		End:           wo.ScheduledEnd,
		TechnicianIDs: append([]string(nil), wo.TechnicianIDs...),
	}
	v.state.Interaction.DragOver = nil
	return nil
}

// DragOver records the cell under the pointer; nil clears it.
func (v *View) DragOver(t *Target) error {
	if !v.Dragging() {
		return ErrNotDragging
	}
	if t == nil {
		v.state.Interaction.DragOver = nil
		return nil
	}
	cp := *t
	v.state.Interaction.DragOver = &cp
	return nil
}

// CancelDrag ends the drag without touching the store.
func (v *View) CancelDrag() DropOutcome {
	v.endDrag()
	return Cancelled
}

// Drop releases the dragged card over t. A nil or invalid target ends the
// drag as DroppedInvalid. A valid target moves the card to the target slot,
// keeping its original duration and assigning it to the target technician
// alone. The start snaps down to the slot grid. The move is applied
// locally first and reverted when the store rejects it.
func (v *View) Drop(ctx context.Context, t *Target) (DropOutcome, error) {
	if !v.Dragging() {
		return DroppedInvalid, ErrNotDragging
	}
	id := v.state.Interaction.DraggedID
	origin := v.state.Interaction.DragOrigin
	defer v.endDrag()

	if t == nil || !v.validTarget(*t) {
		return DroppedInvalid, nil
	}
	i := v.indexOf(id)
	if i < 0 {
		return DroppedInvalid, ErrUnknownWorkOrder
	}
	previous := v.orders[i].Clone()

	date := t.Date
	if date.IsZero() {
		date = v.state.CurrentDate
	}
	start := timegrid.Quantize(timegrid.Combine(date, t.Hour, t.Minute), v.opts.SlotMinutes)
	end := start.Add(origin.End.Sub(origin.Start))
	patch := domain.WorkOrderPatch{
		ScheduledStart: &start,
		ScheduledEnd:   &end,
		TechnicianIDs:  []string{t.TechnicianID},
	}

	v.orders[i] = patch.Apply(previous)
	updated, err := v.store.UpdateWorkOrder(ctx, id, patch)
	if err != nil {
		v.put(previous)
		v.notify.Notify("Failed to reschedule "+label(previous)+": "+err.Error(), NoticeError)
		return DroppedValid, err
	}
	v.put(updated)
	v.notify.Notify("Rescheduled "+label(updated)+" to "+start.Format("Jan 2 15:04"), NoticeSuccess)
	return DroppedValid, nil
}

func (v *View) validTarget(t Target) bool {
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return false
	}
	for _, r := range v.Rows() {
		if r.Technician.ID == t.TechnicianID {
			return true
		}
	}
	return false
}

func (v *View) endDrag() {
	v.state.Interaction.DraggedID = ""
	v.state.Interaction.DragOrigin = nil
	v.state.Interaction.DragOver = nil
}

// OpenCreateAt opens the create modal for an empty cell, one hour long and
// preset to the clicked technician. The start snaps to the slot containing
// hour:minute.
func (v *View) OpenCreateAt(technicianID string, date time.Time, hour, minute int) error {
	if v.isTechnician() {
		return ErrNotPermitted
	}
	if date.IsZero() {
		date = v.state.CurrentDate
	}
	start := timegrid.Quantize(timegrid.Combine(date, hour, minute), v.opts.SlotMinutes)
	v.openOverlay(Overlay{Kind: OverlayCreate, Draft: &Draft{
		TechnicianID:      technicianID,
		ScheduledStart:    start,
		ScheduledEnd:      start.Add(time.Hour),
		Priority:          domain.PriorityMedium,
		Status:            domain.StatusNew,
		EstimatedDuration: 60,
	}})
	return nil
}

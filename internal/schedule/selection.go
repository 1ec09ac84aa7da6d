package schedule

import (
	"context"
	"fmt"

	"dispatchboard/internal/domain"
)

// BulkResult reports the per-item outcome of a bulk operation.
type BulkResult struct {
	Succeeded []string
	Failed    map[string]error
}

func newBulkResult() BulkResult { return BulkResult{Failed: map[string]error{}} }

// Attempts is the number of store calls made.
func (r BulkResult) Attempts() int { return len(r.Succeeded) + len(r.Failed) }

// ClickCard handles a plain or modifier click on a card. In bulk mode, or
// with the modifier held, the card's selection is toggled; otherwise its
// detail view opens.
func (v *View) ClickCard(id string, modifier bool) error {
	if v.indexOf(id) < 0 {
		return ErrUnknownWorkOrder
	}
	if modifier || v.state.Selection.BulkMode {
		v.toggleSelected(id)
		return nil
	}
	return v.OpenDetail(id)
}

func (v *View) toggleSelected(id string) {
	ids := v.state.Selection.IDs
	for i, sel := range ids {
		if sel == id {
			v.state.Selection.IDs = append(ids[:i:i], ids[i+1:]...)
			return
		}
	}
	v.state.Selection.IDs = append(ids, id)
}

// ToggleBulkMode flips bulk mode. Leaving it clears the selection.
func (v *View) ToggleBulkMode() { v.SetBulkMode(!v.state.Selection.BulkMode) }

// SetBulkMode enters or leaves bulk mode. Leaving it clears the selection.
func (v *View) SetBulkMode(on bool) {
	v.state.Selection.BulkMode = on
	if !on {
		v.state.Selection.IDs = nil
	}
}

// ClearSelection empties the selection and leaves bulk mode.
func (v *View) ClearSelection() { v.state.Selection = Selection{} }

// pruneSelection drops ids whose work order is gone.
func (v *View) pruneSelection() {
	ids := v.state.Selection.IDs[:0:0]
	for _, id := range v.state.Selection.IDs {
		if v.indexOf(id) >= 0 {
			ids = append(ids, id)
		}
	}
	v.state.Selection.IDs = ids
}

// ApplyBulkStatus sets status on every selected work order, one at a time.
// A failing item is reported and skipped. Selection and bulk mode are
// cleared afterwards whatever the outcome.
func (v *View) ApplyBulkStatus(ctx context.Context, status domain.Status) (BulkResult, error) {
	if !status.Valid() {
		return BulkResult{}, ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
	}
	v.pruneSelection()
	ids := append([]string(nil), v.state.Selection.IDs...)
	defer v.ClearSelection()
	if len(ids) == 0 {
		v.notify.Notify("No work orders selected", NoticeError)
		return newBulkResult(), ErrEmptySelection
	}

	res := newBulkResult()
	for _, id := range ids {
		s := status
		updated, err := v.store.UpdateWorkOrder(ctx, id, domain.WorkOrderPatch{Status: &s})
		if err != nil {
			res.Failed[id] = err
			v.notify.Notify(fmt.Sprintf("Failed to update %s: %v", v.labelOf(id), err), NoticeError)
			continue
		}
		v.put(updated)
		res.Succeeded = append(res.Succeeded, id)
		v.notify.Notify(fmt.Sprintf("%s set to %s", label(updated), status), NoticeSuccess)
	}
	return res, nil
}

// RequestBulkDelete opens the count-aware confirmation dialog.
func (v *View) RequestBulkDelete() error {
	if v.isTechnician() {
		return ErrNotPermitted
	}
	v.pruneSelection()
	n := len(v.state.Selection.IDs)
	if n == 0 {
		return ErrEmptySelection
	}
	v.openOverlay(Overlay{Kind: OverlayBulkDeleteConfirm, Count: n})
	return nil
}

// ApplyBulkDelete deletes every selected work order after the bulk
// confirmation dialog has been shown. Local copies are removed only once
// the store confirms.
func (v *View) ApplyBulkDelete(ctx context.Context) (BulkResult, error) {
	if v.state.Overlay.Kind != OverlayBulkDeleteConfirm {
		return BulkResult{}, ErrConfirmationRequired
	}
	v.state.Overlay = Overlay{}
	v.pruneSelection()
	ids := append([]string(nil), v.state.Selection.IDs...)
	defer v.ClearSelection()
	if len(ids) == 0 {
		v.notify.Notify("No work orders selected", NoticeError)
		return newBulkResult(), ErrEmptySelection
	}

	res := newBulkResult()
	for _, id := range ids {
		name := v.labelOf(id)
		if err := v.store.DeleteWorkOrder(ctx, id); err != nil {
			res.Failed[id] = err
			v.notify.Notify(fmt.Sprintf("Failed to delete %s: %v", name, err), NoticeError)
			continue
		}
		v.remove(id)
		res.Succeeded = append(res.Succeeded, id)
		v.notify.Notify("Deleted "+name, NoticeSuccess)
	}
	return res, nil
}

func (v *View) labelOf(id string) string {
	if i := v.indexOf(id); i >= 0 {
		return label(v.orders[i])
	}
	return id
}

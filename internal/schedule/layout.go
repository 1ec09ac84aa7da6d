package schedule

// SetViewportWidth records the viewport width in CSS pixels.
func (v *View) SetViewportWidth(px int) { v.state.ViewportWidth = px }

// Mobile reports whether rows are collapsible. An unknown width is desktop.
func (v *View) Mobile() bool {
	w := v.state.ViewportWidth
	return w > 0 && w < v.opts.MobileBreakpoint
}

// ToggleRow collapses or expands a technician row in mobile mode.
func (v *View) ToggleRow(technicianID string) bool {
	if !v.Mobile() {
		return false
	}
	if v.state.CollapsedTechnicianIDs[technicianID] {
		delete(v.state.CollapsedTechnicianIDs, technicianID)
	} else {
		v.state.CollapsedTechnicianIDs[technicianID] = true
	}
	return true
}

// RowCollapsed reports whether the row renders collapsed. Rows are always
// expanded outside mobile mode; the collapse set is kept for later.
func (v *View) RowCollapsed(technicianID string) bool {
	return v.Mobile() && v.state.CollapsedTechnicianIDs[technicianID]
}

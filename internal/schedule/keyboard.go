package schedule

// Key names understood by HandleKey.
const (
	KeyEscape = "Escape"
	KeyLeft   = "ArrowLeft"
	KeyRight  = "ArrowRight"
	KeyHome   = "Home"
	KeyHelp   = "?"
)

// KeyEvent is a key press delivered to HandleKey.
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Meta  bool
	Alt   bool
	Shift bool
	// InTextField is set while focus is in a text input or text area.
	InTextField bool
}

// HandleKey runs the global shortcut bound to ev and reports whether one
// fired.
func (v *View) HandleKey(ev KeyEvent) bool {
	if ev.InTextField {
		return false
	}
	switch {
	case (ev.Ctrl || ev.Meta) && (ev.Key == "n" || ev.Key == "N"):
		return v.OpenCreate() == nil
	case ev.Alt && ev.Key == KeyLeft:
		v.Advance(-1)
		return true
	case ev.Alt && ev.Key == KeyRight:
		v.Advance(1)
		return true
	case ev.Alt && ev.Key == KeyHome:
		v.GoToday()
		return true
	case ev.Key == KeyEscape:
		return v.Escape()
	case ev.Key == KeyHelp && !ev.Ctrl && !ev.Meta && !ev.Alt:
		if v.state.Overlay.Kind == OverlayHelp {
			v.CloseOverlay()
			return true
		}
		if v.state.Overlay.Open() {
			return false
		}
		v.OpenHelp()
		return true
	}
	return false
}

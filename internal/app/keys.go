package app

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	CursorLeft  key.Binding
	CursorRight key.Binding
	CursorUp    key.Binding
	CursorDown  key.Binding
	FastLeft    key.Binding
	FastRight   key.Binding
	FastUp      key.Binding
	FastDown    key.Binding

	Press key.Binding

	NudgeLeft  key.Binding
	NudgeRight key.Binding
	NudgeUp    key.Binding
	NudgeDown  key.Binding

	PrevFrame key.Binding
	NextFrame key.Binding

	Undo   key.Binding
	Redo   key.Binding
	Delete key.Binding
	Insert key.Binding
	Copy   key.Binding

	StatusNormal   key.Binding
	StatusKeyframe key.Binding
	StatusTracked  key.Binding
	StatusInterp   key.Binding
	StatusEndframe key.Binding

	NextCurve key.Binding
	Save      key.Binding
	Export    key.Binding
	Fit       key.Binding
	Cancel    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		CursorLeft:  key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "cursor left")),
		CursorRight: key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "cursor right")),
		CursorUp:    key.NewBinding(key.WithKeys("k"), key.WithHelp("k", "cursor up")),
		CursorDown:  key.NewBinding(key.WithKeys("j"), key.WithHelp("j", "cursor down")),
		FastLeft:    key.NewBinding(key.WithKeys("H")),
		FastRight:   key.NewBinding(key.WithKeys("L")),
		FastUp:      key.NewBinding(key.WithKeys("K")),
		FastDown:    key.NewBinding(key.WithKeys("J")),

		Press: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "press/release pointer")),

		NudgeLeft:  key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "nudge selection left")),
		NudgeRight: key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "nudge selection right")),
		NudgeUp:    key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "nudge selection up")),
		NudgeDown:  key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "nudge selection down")),

		PrevFrame: key.NewBinding(key.WithKeys(","), key.WithHelp(",", "previous frame")),
		NextFrame: key.NewBinding(key.WithKeys("."), key.WithHelp(".", "next frame")),

		Undo:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		Redo:   key.NewBinding(key.WithKeys("U", "ctrl+r"), key.WithHelp("U", "redo")),
		Delete: key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete selected")),
		Insert: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "insert point at cursor")),
		Copy:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy selection")),

		StatusNormal:   key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "status normal")),
		StatusKeyframe: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "status keyframe")),
		StatusTracked:  key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "status tracked")),
		StatusInterp:   key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "status interpolated")),
		StatusEndframe: key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "status endframe")),

		NextCurve: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next curve")),
		Save:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Export:    key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "export PNG")),
		Fit:       key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fit view")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

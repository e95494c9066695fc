package ui

import (
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
)

// FieldEntry is a form Entry that reports focus loss and can restrict typed runes.
// It embeds widget.Entry to inherit all standard behavior.
type FieldEntry struct {
	widget.Entry

	// Accept filters typed runes. Nil accepts everything.
	Accept func(r rune) bool
	// OnFocusLost runs after the entry loses focus.
	OnFocusLost func()

	keyboard mobile.KeyboardType
}

// NewFieldEntry creates a plain single-line field.
func NewFieldEntry() *FieldEntry {
	entry := &FieldEntry{keyboard: mobile.DefaultKeyboard}
	entry.ExtendBaseWidget(entry)
	return entry
}

// NewDateEntry creates a field for DD.MM.YYYY dates: digits and dots only.
func NewDateEntry() *FieldEntry {
	entry := NewFieldEntry()
	entry.Accept = isDateRune
	entry.keyboard = mobile.NumberKeyboard
	return entry
}

// TypedRune drops runes rejected by Accept.
// Pasted text bypasses this filter; validation catches it on focus loss.
func (e *FieldEntry) TypedRune(r rune) {
	if e.Accept != nil && !e.Accept(r) {
		return
	}
	e.Entry.TypedRune(r)
}

// FocusLost notifies the owner so that the field can be re-validated.
func (e *FieldEntry) FocusLost() {
	e.Entry.FocusLost()
	if e.OnFocusLost != nil {
		e.OnFocusLost()
	}
}

// Keyboard selects the on-screen keyboard on mobile devices.
func (e *FieldEntry) Keyboard() mobile.KeyboardType {
	return e.keyboard
}

func isDateRune(r rune) bool {
	return (r >= '0' && r <= '9') || r == '.'
}

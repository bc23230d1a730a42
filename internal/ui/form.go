package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dbod-pe/promptpack/internal/models"
)

// slotField is one input widget bound to a template slot. Required free-text
// slots (code to audit, change summaries) get a multi-line textarea;
// everything else gets a single-line input.
type slotField struct {
	slot      models.Slot
	input     textinput.Model
	textarea  textarea.Model
	multiline bool
}

// SlotForm collects values for a template's declared slots
type SlotForm struct {
	templateID string
	fields     []slotField
	focused    int
	submitted  bool
}

// NewSlotForm builds a form from a template's slot declarations
func NewSlotForm(tmpl *models.Template) *SlotForm {
	fields := make([]slotField, 0, len(tmpl.Slots))

	for _, slot := range tmpl.Slots {
		field := slotField{slot: slot}

		if slot.EffectiveType() == models.SlotText && len(slot.Options) == 0 && slot.Required {
			ta := textarea.New()
			ta.Placeholder = slot.Description
			ta.CharLimit = 0
			ta.MaxHeight = 0
			ta.ShowLineNumbers = false
			ta.SetWidth(80)
			ta.SetHeight(8)
			field.textarea = ta
			field.multiline = true
		} else {
			ti := textinput.New()
			ti.Placeholder = placeholderFor(slot)
			ti.CharLimit = 0
			ti.Width = 60
			if slot.Default != "" {
				ti.SetValue(slot.Default)
			}
			field.input = ti
		}

		fields = append(fields, field)
	}

	form := &SlotForm{templateID: tmpl.ID, fields: fields}
	form.focusField(0)
	return form
}

func placeholderFor(slot models.Slot) string {
	if len(slot.Options) > 0 {
		return strings.Join(slot.Options, " | ")
	}
	if slot.EffectiveType() == models.SlotInt && slot.Max > 0 {
		return fmt.Sprintf("%d-%d", slot.Min, slot.Max)
	}
	return slot.Description
}

// Update handles form input and navigation
func (f *SlotForm) Update(msg tea.Msg) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab":
			f.nextField()
			return nil
		case "shift+tab":
			f.prevField()
			return nil
		case "ctrl+s":
			f.submitted = true
			return nil
		case "enter", "down":
			// Single-line fields treat enter/down as navigation
			if !f.fields[f.focused].multiline {
				f.nextField()
				return nil
			}
		case "up":
			if !f.fields[f.focused].multiline {
				f.prevField()
				return nil
			}
		}
	}

	field := &f.fields[f.focused]
	var cmd tea.Cmd
	if field.multiline {
		field.textarea, cmd = field.textarea.Update(msg)
	} else {
		field.input, cmd = field.input.Update(msg)
	}
	return cmd
}

// Resize adjusts textarea widths to the window
func (f *SlotForm) Resize(width, height int) {
	w := width - 10
	if w < 20 {
		w = 20
	}
	for i := range f.fields {
		if f.fields[i].multiline {
			f.fields[i].textarea.SetWidth(w)
		} else {
			f.fields[i].input.Width = w
		}
	}
}

func (f *SlotForm) nextField() {
	f.blurField(f.focused)
	f.focused++
	if f.focused >= len(f.fields) {
		f.focused = 0
	}
	f.focusField(f.focused)
}

func (f *SlotForm) prevField() {
	f.blurField(f.focused)
	f.focused--
	if f.focused < 0 {
		f.focused = len(f.fields) - 1
	}
	f.focusField(f.focused)
}

func (f *SlotForm) focusField(i int) {
	if i < 0 || i >= len(f.fields) {
		return
	}
	if f.fields[i].multiline {
		f.fields[i].textarea.Focus()
	} else {
		f.fields[i].input.Focus()
	}
}

func (f *SlotForm) blurField(i int) {
	if i < 0 || i >= len(f.fields) {
		return
	}
	if f.fields[i].multiline {
		f.fields[i].textarea.Blur()
	} else {
		f.fields[i].input.Blur()
	}
}

// Values returns the entered slot values, omitting untouched empty fields so
// validation can apply defaults or flag missing required slots.
func (f *SlotForm) Values() map[string]interface{} {
	values := make(map[string]interface{})
	for _, field := range f.fields {
		var v string
		if field.multiline {
			v = field.textarea.Value()
		} else {
			v = field.input.Value()
		}
		if v != "" {
			values[field.slot.Name] = v
		}
	}
	return values
}

// IsSubmitted returns whether the form has been submitted
func (f *SlotForm) IsSubmitted() bool {
	return f.submitted
}

// Reset clears entered values and submission state
func (f *SlotForm) Reset() {
	for i := range f.fields {
		if f.fields[i].multiline {
			f.fields[i].textarea.SetValue("")
		} else {
			f.fields[i].input.SetValue(f.fields[i].slot.Default)
		}
		f.blurField(i)
	}
	f.focused = 0
	f.submitted = false
	f.focusField(0)
}

// View renders the form fields with labels
func (f *SlotForm) View() string {
	var b strings.Builder

	for i, field := range f.fields {
		label := field.slot.Name
		if field.slot.Required {
			label = label + StyleRequired.Render("*")
		}
		if i == f.focused {
			b.WriteString(StyleLabel.Render("> " + label))
		} else {
			b.WriteString(StyleHelp.Render("  " + label))
		}
		b.WriteString("\n")

		if field.multiline {
			b.WriteString(field.textarea.View())
		} else {
			b.WriteString("  " + field.input.View())
		}
		b.WriteString("\n\n")
	}

	return b.String()
}

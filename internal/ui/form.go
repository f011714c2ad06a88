// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/portalctl/portalctl/internal/crud"
	"github.com/portalctl/portalctl/internal/grid"
)

const (
	formFieldWidth = 40
	requiredMark   = " *"
	saveLabel      = "Save"
	cancelLabel    = "Cancel"
)

// Form edits the values of a crud schema.
type Form struct {
	*tview.Flex

	form     *tview.Form
	errs     *tview.TextView
	schema   crud.Schema
	mode     crud.Mode
	items    map[string]tview.FormItem
	onSave   func(crud.Values)
	onCancel func()
}

// NewForm lays out schema prefilled with values. Create-only fields are
// skipped when editing.
func NewForm(title string, schema crud.Schema, mode crud.Mode, values crud.Values) *Form {
	f := Form{
		Flex:   tview.NewFlex().SetDirection(tview.FlexRow),
		form:   tview.NewForm(),
		errs:   tview.NewTextView(),
		schema: schema,
		mode:   mode,
		items:  make(map[string]tview.FormItem, len(schema)),
	}

	f.form.SetBorder(true)
	f.form.SetTitle(fmt.Sprintf(" %s ", title))
	f.form.SetBackgroundColor(tcell.ColorDefault)
	f.form.SetFieldBackgroundColor(tcell.ColorDarkSlateGray)
	f.form.SetButtonsAlign(tview.AlignCenter)
	f.errs.SetDynamicColors(true)
	f.errs.SetBackgroundColor(tcell.ColorDefault)
	f.errs.SetBorderPadding(0, 0, 1, 1)

	for _, fd := range schema {
		if fd.CreateOnly && mode == crud.ModeEdit {
			continue
		}
		f.addField(fd, values[fd.Name])
	}
	f.form.AddButton(saveLabel, f.save)
	f.form.AddButton(cancelLabel, f.cancel)
	f.form.SetCancelFunc(f.cancel)

	f.AddItem(f.form, 0, 1, true)
	f.AddItem(f.errs, 3, 0, false)

	return &f
}

// OnSave sets the save callback.
func (f *Form) OnSave(fn func(crud.Values)) *Form {
	f.onSave = fn
	return f
}

// OnCancel sets the cancel callback.
func (f *Form) OnCancel(fn func()) *Form {
	f.onCancel = fn
	return f
}

// Mode returns the form mode.
func (f *Form) Mode() crud.Mode {
	return f.mode
}

// Values reads the current field values. Numbers are parsed; an unparsable
// number is kept as typed so validation can report it.
func (f *Form) Values() crud.Values {
	v := make(crud.Values, len(f.items))
	for _, fd := range f.schema {
		item, ok := f.items[fd.Name]
		if !ok {
			continue
		}
		switch it := item.(type) {
		case *tview.DropDown:
			idx, _ := it.GetCurrentOption()
			if idx >= 0 && idx < len(fd.Options) {
				v[fd.Name] = fd.Options[idx].Value
			} else {
				v[fd.Name] = ""
			}
		case *tview.InputField:
			v[fd.Name] = fieldValue(fd, it.GetText())
		}
	}

	return v
}

// SetValue overwrites one field.
func (f *Form) SetValue(name string, value any) {
	fd, ok := f.schema.Field(name)
	if !ok {
		return
	}
	switch it := f.items[name].(type) {
	case *tview.DropDown:
		it.SetCurrentOption(optionIndex(fd, value))
	case *tview.InputField:
		it.SetText(grid.Stringify(value))
	}
}

// SetErrors shows field errors, in schema order. Nil clears them.
func (f *Form) SetErrors(errs crud.FieldErrors) {
	f.errs.Clear()
	if len(errs) == 0 {
		return
	}

	lines := make([]string, 0, len(errs))
	seen := make(map[string]struct{}, len(errs))
	for _, fd := range f.schema {
		if msg, ok := errs[fd.Name]; ok {
			lines = append(lines, fmt.Sprintf("[red::b]%s[-::-] %s", tview.Escape(fd.Label), tview.Escape(msg)))
			seen[fd.Name] = struct{}{}
		}
	}
	rest := make([]string, 0)
	for k := range errs {
		if _, ok := seen[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		lines = append(lines, fmt.Sprintf("[red::b]%s[-::-] %s", tview.Escape(k), tview.Escape(errs[k])))
	}

	f.errs.SetText(strings.Join(lines, "\n"))
}

// ErrorText returns the rendered errors without markup.
func (f *Form) ErrorText() string {
	return f.errs.GetText(true)
}

// Submit triggers the save callback as the Save button would.
func (f *Form) Submit() {
	f.save()
}

func (f *Form) save() {
	if f.onSave != nil {
		f.onSave(f.Values())
	}
}

func (f *Form) cancel() {
	if f.onCancel != nil {
		f.onCancel()
	}
}

func (f *Form) addField(fd crud.Field, value any) {
	label := fd.Label
	if label == "" {
		label = fd.Name
	}
	if fd.Required && (!fd.CreateOnly || f.mode == crud.ModeCreate) {
		label += requiredMark
	}

	switch fd.Kind {
	case crud.KindSelect:
		labels := make([]string, 0, len(fd.Options))
		for _, o := range fd.Options {
			labels = append(labels, o.Label)
		}
		dd := tview.NewDropDown().
			SetLabel(label).
			SetOptions(labels, nil).
			SetCurrentOption(optionIndex(fd, value))
		f.form.AddFormItem(dd)
		f.items[fd.Name] = dd
	default:
		in := tview.NewInputField().
			SetLabel(label).
			SetFieldWidth(formFieldWidth).
			SetText(grid.Stringify(value))
		switch fd.Kind {
		case crud.KindPassword:
			in.SetMaskCharacter('*')
		case crud.KindNumber:
			in.SetAcceptanceFunc(acceptNumber)
		}
		f.form.AddFormItem(in)
		f.items[fd.Name] = in
	}
}

func optionIndex(fd crud.Field, value any) int {
	want := grid.Stringify(value)
	for i, o := range fd.Options {
		if grid.Stringify(o.Value) == want {
			return i
		}
	}
	if len(fd.Options) > 0 {
		return 0
	}

	return -1
}

func fieldValue(fd crud.Field, text string) any {
	if fd.Kind != crud.KindNumber {
		return text
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if n, err := strconv.ParseFloat(text, 64); err == nil {
		return n
	}

	return text
}

func acceptNumber(text string, last rune) bool {
	if text == "-" || text == "." || text == "-." {
		return true
	}
	_, err := strconv.ParseFloat(text, 64)
	return err == nil
}

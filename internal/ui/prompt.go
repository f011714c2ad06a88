// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package ui

import (
	"fmt"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

const (
	promptID     = "prompt"
	promptWidth  = 64
	promptHeight = 7
)

// PromptField is one line of a prompt.
type PromptField struct {
	Label  string
	Value  string
	Masked bool
}

// Prompt is a small modal form reading a few strings.
type Prompt struct {
	*tview.Grid

	form     *tview.Form
	pages    *Pages
	fields   []*tview.InputField
	onSubmit func([]string)
	onCancel func()
}

// NewPrompt returns a centered prompt over pages.
func NewPrompt(pages *Pages, title string, ff ...PromptField) *Prompt {
	p := Prompt{
		form:  tview.NewForm(),
		pages: pages,
	}
	p.form.SetBorder(true)
	p.form.SetTitle(fmt.Sprintf(" %s ", title))
	p.form.SetBackgroundColor(tcell.ColorDefault)
	for _, f := range ff {
		in := tview.NewInputField().SetLabel(f.Label).SetText(f.Value).SetFieldWidth(promptWidth - 20)
		if f.Masked {
			in.SetMaskCharacter('*')
		}
		p.form.AddFormItem(in)
		p.fields = append(p.fields, in)
	}
	p.form.AddButton("OK", p.submit)
	p.form.AddButton("Cancel", p.cancel)
	p.form.SetCancelFunc(p.cancel)

	height := promptHeight + 2*len(ff)
	p.Grid = tview.NewGrid().
		SetColumns(0, promptWidth, 0).
		SetRows(0, height, 0).
		AddItem(p.form, 1, 1, 1, 1, 0, 0, true)

	return &p
}

// OnSubmit sets the callback receiving the values in field order.
func (p *Prompt) OnSubmit(fn func([]string)) *Prompt {
	p.onSubmit = fn
	return p
}

// OnCancel sets the callback fired when the prompt is abandoned.
func (p *Prompt) OnCancel(fn func()) *Prompt {
	p.onCancel = fn
	return p
}

// Show overlays the prompt.
func (p *Prompt) Show() {
	p.pages.Overlay(promptID, p)
}

// Dismiss removes the prompt.
func (p *Prompt) Dismiss() {
	p.pages.Dismiss(promptID)
}

// Values returns the typed values.
func (p *Prompt) Values() []string {
	vv := make([]string, 0, len(p.fields))
	for _, f := range p.fields {
		vv = append(vv, f.GetText())
	}

	return vv
}

func (p *Prompt) submit() {
	p.Dismiss()
	if p.onSubmit != nil {
		p.onSubmit(p.Values())
	}
}

func (p *Prompt) cancel() {
	p.Dismiss()
	if p.onCancel != nil {
		p.onCancel()
	}
}

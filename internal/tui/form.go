package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"event-admin/internal/status"
	"event-admin/models"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

const (
	fieldCode = iota
	fieldDiscountType
	fieldDiscountValue
	fieldMaxUses
	fieldValidUntil
)

// promoFields are keyed like the JSON fields validation errors refer to.
var promoFields = []struct {
	name, label, placeholder string
}{
	{"code", "Code", "SUMMER25"},
	{"discount_type", "Discount type", "percentage or fixed"},
	{"discount_value", "Discount value", "20"},
	{"max_uses", "Max uses", "1"},
	{"valid_until", "Valid until", "YYYY-MM-DD"},
}

// promoForm is the create-promo form.
type promoForm struct {
	inputs []textinput.Model
	focus  int
	errs   map[string]string
}

func newPromoForm(d models.PromoDraft) promoForm {
	values := []string{d.Code, string(d.DiscountType), "", strconv.Itoa(d.MaxUses), d.ValidUntil}
	if !d.DiscountValue.IsZero() {
		values[fieldDiscountValue] = d.DiscountValue.String()
	}

	inputs := make([]textinput.Model, len(promoFields))
	for i, f := range promoFields {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = f.placeholder
		in.CharLimit = 32
		in.SetValue(values[i])
		inputs[i] = in
	}
	inputs[fieldCode].Focus()
	return promoForm{inputs: inputs, errs: map[string]string{}}
}

func (f *promoForm) move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	return f.inputs[f.focus].Focus()
}

func (f *promoForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *promoForm) setCode(code string) {
	f.inputs[fieldCode].SetValue(code)
	f.inputs[fieldCode].CursorEnd()
	delete(f.errs, "code")
}

func (f promoForm) value(field int) string {
	return strings.TrimSpace(f.inputs[field].Value())
}

// draft reads the form into a normalized draft and validates it as of
// now. Numbers that do not parse are reported next to their field, ahead
// of the draft's own rules.
func (f promoForm) draft(now time.Time) (models.PromoDraft, error) {
	parse := map[string]string{}
	d := models.PromoDraft{
		Code:         f.value(fieldCode),
		DiscountType: models.DiscountType(strings.ToLower(f.value(fieldDiscountType))),
		ValidUntil:   f.value(fieldValidUntil),
	}
	if v := f.value(fieldDiscountValue); v != "" {
		value, err := decimal.NewFromString(v)
		if err != nil {
			parse["discount_value"] = "Discount value must be a number"
		} else {
			d.DiscountValue = value
		}
	}
	if v := f.value(fieldMaxUses); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			parse["max_uses"] = "Max uses must be a whole number"
		} else {
			d.MaxUses = n
		}
	}
	d = d.Normalize()

	fields := map[string]string{}
	if verr, ok := d.Validate(now).(*status.ValidationError); ok {
		for k, v := range verr.Fields {
			fields[k] = v
		}
	}
	for k, v := range parse {
		fields[k] = v
	}
	if len(fields) > 0 {
		return d, &status.ValidationError{Fields: fields}
	}
	return d, nil
}

func (f promoForm) view(s styles) string {
	var b strings.Builder
	b.WriteString(s.title.Render("New promo code"))
	b.WriteString("\n\n")
	for i, field := range promoFields {
		label := fmt.Sprintf("%-15s", field.label)
		if i == f.focus {
			label = s.title.Render(label)
		} else {
			label = s.muted.Render(label)
		}
		b.WriteString(label + " " + f.inputs[i].View() + "\n")
		if msg := f.errs[field.name]; msg != "" {
			b.WriteString(strings.Repeat(" ", 16) + s.bad.Render(msg) + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(s.muted.Render("tab next field • ctrl+g suggest code • enter create • esc cancel"))
	return s.panel.Render(b.String())
}

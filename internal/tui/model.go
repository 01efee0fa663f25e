// Package tui is the terminal rendition of the admin dashboard. The
// bubbletea update loop is the only goroutine that touches the model;
// every remote read and mutation runs as a tea.Cmd and reports back with
// a message.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"event-admin/internal/inflight"
	"event-admin/internal/listview"
	"event-admin/internal/services"
	"event-admin/internal/status"
	"event-admin/internal/tabs"
	"event-admin/models"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	loadTimeout     = 30 * time.Second
	mutationTimeout = 30 * time.Second
)

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeNotes
	modePromo
	modeDetail
)

// filterFields is the field the filter key cycles through on each list tab.
var filterFields = map[tabs.Tab]string{
	tabs.Tickets:  "payment_status",
	tabs.Payments: "payment_status",
	tabs.Promos:   "state",
	tabs.Waitlist: "referral",
}

var promoCreateKey = inflight.Key("promo", "create")

// loadedMsg reports that the read behind a tab finished.
type loadedMsg struct {
	tab tabs.Tab
	err error
}

// mutationResultMsg reports a finished check-in, review or promo create.
type mutationResultMsg struct {
	key     string
	message string
	err     error
}

// review is a confirm or reject waiting for its note.
type review struct {
	reference string
	reject    bool
}

// Model is the root bubbletea model of the dashboard.
type Model struct {
	dash     *services.Dashboard
	router   *tabs.Router
	event    models.Event
	hasEvent bool

	keys   KeyMap
	styles styles
	help   help.Model

	width  int
	height int

	mode   mode
	search textinput.Model
	notes  textinput.Model
	form   promoForm
	review review

	queries map[tabs.Tab]listview.Query
	cursors map[tabs.Tab]int
	loading map[tabs.Tab]bool
	errs    map[tabs.Tab]error

	// inFlight holds the keys of mutations dispatched and not yet
	// answered. A second mutation on a held key is refused, not queued.
	inFlight map[string]bool

	status    string
	statusErr bool

	// blocked is set by a configuration error; nothing else renders.
	blocked error
}

// NewModel builds the dashboard for the catalog event eventID, or the
// first event when eventID is empty.
func NewModel(dash *services.Dashboard, eventID string) (Model, error) {
	router, err := tabs.New(tabs.Dashboard...)
	if err != nil {
		return Model{}, err
	}

	event, ok := dash.Event(eventID)
	if eventID != "" && !ok {
		return Model{}, fmt.Errorf("tui: event %q is not in the catalog", eventID)
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search"

	notes := textinput.New()
	notes.Prompt = "note: "
	notes.CharLimit = 200

	m := Model{
		dash:     dash,
		router:   router,
		event:    event,
		hasEvent: ok,
		keys:     DefaultKeyMap,
		styles:   newStyles(DefaultTheme),
		help:     help.New(),
		search:   search,
		notes:    notes,
		queries:  map[tabs.Tab]listview.Query{},
		cursors:  map[tabs.Tab]int{},
		loading:  map[tabs.Tab]bool{},
		errs:     map[tabs.Tab]error{},
		inFlight: map[string]bool{},
	}
	if !dash.Configured() {
		m.blocked = status.ErrNotConfigured
	}
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return m.load(m.router.Active())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case loadedMsg:
		delete(m.loading, msg.tab)
		if msg.err != nil {
			m.errs[msg.tab] = msg.err
			if errors.Is(msg.err, status.ErrNotConfigured) {
				m.blocked = msg.err
			}
		} else {
			delete(m.errs, msg.tab)
		}
		m.clampCursor(msg.tab)
		return m, nil

	case mutationResultMsg:
		delete(m.inFlight, msg.key)
		if msg.err != nil {
			if errors.Is(msg.err, status.ErrNotConfigured) {
				m.blocked = msg.err
			}
			var verr *status.ValidationError
			if msg.key == promoCreateKey && errors.As(msg.err, &verr) {
				m.form.errs = verr.Fields
			}
			m.setStatus(status.Message(msg.err), true)
			return m, nil
		}
		if msg.key == promoCreateKey && m.mode == modePromo {
			m.mode = modeBrowse
		}
		m.setStatus(msg.message, false)
		m.clampCursor(m.router.Active())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.blocked != nil {
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	switch m.mode {
	case modeSearch:
		return m.updateSearch(msg)
	case modeNotes:
		return m.updateNotes(msg)
	case modePromo:
		return m.updatePromo(msg)
	case modeDetail:
		if key.Matches(msg, m.keys.Cancel) || key.Matches(msg, m.keys.Detail) {
			m.mode = modeBrowse
		}
		return m, nil
	}
	return m.updateBrowse(msg)
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tab := m.router.Active()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.NextTab):
		m.router.Next()
		return m.mounted()

	case key.Matches(msg, m.keys.PrevTab):
		m.router.Prev()
		return m.mounted()

	case key.Matches(msg, m.keys.JumpTab):
		changed, err := m.router.SelectIndex(int(msg.String()[0] - '1'))
		if err != nil || !changed {
			return m, nil
		}
		return m.mounted()

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.Search):
		if !isListTab(tab) {
			return m, nil
		}
		m.mode = modeSearch
		m.search.SetValue(m.queries[tab].Search)
		m.search.CursorEnd()
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Filter):
		m.cycleFilter(tab)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.load(tab)

	case key.Matches(msg, m.keys.Detail):
		if m.rowCount(tab) > 0 {
			m.mode = modeDetail
		}

	case key.Matches(msg, m.keys.CheckIn):
		if tab == tabs.Tickets {
			return m.checkIn()
		}

	case key.Matches(msg, m.keys.Confirm):
		if tab == tabs.Payments {
			return m.startReview(false)
		}

	case key.Matches(msg, m.keys.Reject):
		if tab == tabs.Payments {
			return m.startReview(true)
		}

	case key.Matches(msg, m.keys.NewPromo):
		if tab == tabs.Promos {
			m.form = newPromoForm(m.dash.Promos.Draft())
			m.mode = modePromo
			return m, textinput.Blink
		}

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// mounted runs after the active tab changed: the new view is shown and
// its read starts.
func (m Model) mounted() (tea.Model, tea.Cmd) {
	m.status = ""
	return m, m.load(m.router.Active())
}

// load returns the command that reads the remote collection behind tab,
// or nil for tabs rendered from the catalog.
func (m Model) load(tab tabs.Tab) tea.Cmd {
	if !isListTab(tab) || m.blocked != nil {
		return nil
	}
	m.loading[tab] = true
	dash := m.dash
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		return loadedMsg{tab: tab, err: dash.Load(ctx, tab)}
	}
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tab := m.router.Active()
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.search.SetValue("")
		m.applySearch(tab)
		m.search.Blur()
		m.mode = modeBrowse
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		m.search.Blur()
		m.mode = modeBrowse
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.applySearch(tab)
	return m, cmd
}

func (m *Model) applySearch(tab tabs.Tab) {
	q := m.queries[tab]
	q.Search = m.search.Value()
	m.queries[tab] = q
	m.cursors[tab] = 0
}

func (m *Model) cycleFilter(tab tabs.Tab) {
	field, ok := filterFields[tab]
	if !ok {
		return
	}
	values := append([]string{listview.All}, m.filterOptions(tab, field)...)
	q := m.queries[tab]
	current := q.Filters[field]
	if current == "" {
		current = listview.All
	}
	next := listview.All
	for i, v := range values {
		if v == current {
			next = values[(i+1)%len(values)]
			break
		}
	}
	m.queries[tab] = q.With(field, next)
	m.cursors[tab] = 0
}

func (m Model) filterOptions(tab tabs.Tab, field string) []string {
	switch tab {
	case tabs.Tickets:
		return m.dash.Tickets.List.Options(field)
	case tabs.Payments:
		return m.dash.Payments.List.Options(field)
	case tabs.Promos:
		return m.dash.Promos.List.Options(field)
	case tabs.Waitlist:
		return m.dash.Waitlist.Options(field)
	}
	return nil
}

func (m Model) checkIn() (tea.Model, tea.Cmd) {
	t, ok := m.selectedTicket()
	if !ok {
		return m, nil
	}
	switch {
	case !t.IsPaid():
		m.setStatus(status.Message(status.ErrTicketNotPaid), true)
		return m, nil
	case t.IsCheckedIn():
		m.setStatus(status.Message(status.ErrAlreadyCheckedIn), true)
		return m, nil
	}

	k := inflight.Key("ticket", t.TicketCode)
	if m.inFlight[k] {
		m.setStatus(status.Message(status.ErrInFlight), true)
		return m, nil
	}
	m.inFlight[k] = true
	m.setStatus("Checking in "+t.TicketCode+"...", false)

	dash, code := m.dash, t.TicketCode
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		_, err := dash.Tickets.CheckIn(ctx, code)
		return mutationResultMsg{key: k, message: "Ticket checked in successfully", err: err}
	}
}

// startReview opens the note prompt for the selected payment.
func (m Model) startReview(reject bool) (tea.Model, tea.Cmd) {
	p, ok := m.selectedPayment()
	if !ok {
		return m, nil
	}
	if !p.IsPending() {
		m.setStatus(status.Message(status.ErrPaymentNotPending), true)
		return m, nil
	}
	if m.reviewBusy(p.ReferenceCode) {
		m.setStatus(status.Message(status.ErrInFlight), true)
		return m, nil
	}

	m.review = review{reference: p.ReferenceCode, reject: reject}
	m.notes.SetValue("")
	m.notes.Placeholder = "optional"
	if reject {
		m.notes.Placeholder = services.DefaultRejectNote
	}
	m.mode = modeNotes
	return m, m.notes.Focus()
}

// reviewBusy only consults this screen's own markers, since Update never
// waits on the network. A marker held elsewhere is refused by the service
// guard and reported through mutationResultMsg.
func (m Model) reviewBusy(reference string) bool {
	return m.inFlight[inflight.Key("payment", reference)]
}

func (m Model) updateNotes(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.notes.Blur()
		m.mode = modeBrowse
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		m.notes.Blur()
		m.mode = modeBrowse
		return m.submitReview()
	}

	var cmd tea.Cmd
	m.notes, cmd = m.notes.Update(msg)
	return m, cmd
}

func (m Model) submitReview() (tea.Model, tea.Cmd) {
	r, notes := m.review, m.notes.Value()
	if m.reviewBusy(r.reference) {
		m.setStatus(status.Message(status.ErrInFlight), true)
		return m, nil
	}

	k := inflight.Key("payment", r.reference)
	m.inFlight[k] = true
	verb := "Confirming"
	if r.reject {
		verb = "Rejecting"
	}
	m.setStatus(verb+" "+r.reference+"...", false)

	dash := m.dash
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		var (
			out services.ReviewOutcome
			err error
		)
		if r.reject {
			out, err = dash.Payments.Reject(ctx, r.reference, notes)
		} else {
			out, err = dash.Payments.Confirm(ctx, r.reference, notes)
		}
		return mutationResultMsg{key: k, message: out.Message, err: err}
	}
}

func (m Model) updatePromo(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		return m, m.form.move(1)
	case "shift+tab", "up":
		return m, m.form.move(-1)
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeBrowse
		return m, nil

	case key.Matches(msg, m.keys.Suggest):
		code, err := m.dash.Promos.SuggestCode()
		if err != nil {
			m.setStatus(status.Message(err), true)
			return m, nil
		}
		m.form.setCode(code)
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submitPromo()
	}
	return m, m.form.update(msg)
}

func (m Model) submitPromo() (tea.Model, tea.Cmd) {
	if m.inFlight[promoCreateKey] {
		m.setStatus(status.Message(status.ErrInFlight), true)
		return m, nil
	}

	draft, err := m.form.draft(m.dash.Now())
	if err != nil {
		var verr *status.ValidationError
		if errors.As(err, &verr) {
			m.form.errs = verr.Fields
		}
		m.setStatus(status.Message(err), true)
		return m, nil
	}
	m.form.errs = map[string]string{}

	m.inFlight[promoCreateKey] = true
	m.setStatus("Creating "+draft.Code+"...", false)

	dash := m.dash
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		created, err := dash.Promos.Create(ctx, draft)
		return mutationResultMsg{key: promoCreateKey, message: created.Message, err: err}
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) moveCursor(delta int) {
	tab := m.router.Active()
	m.cursors[tab] += delta
	m.clampCursor(tab)
}

func (m *Model) clampCursor(tab tabs.Tab) {
	n := m.rowCount(tab)
	switch {
	case n == 0 || m.cursors[tab] < 0:
		m.cursors[tab] = 0
	case m.cursors[tab] >= n:
		m.cursors[tab] = n - 1
	}
}

func isListTab(tab tabs.Tab) bool {
	_, ok := filterFields[tab]
	return ok
}

func (m Model) tickets() []models.Ticket {
	return m.dash.Tickets.List.View(m.queries[tabs.Tickets])
}

func (m Model) payments() []models.ManualPayment {
	return m.dash.Payments.List.View(m.queries[tabs.Payments])
}

func (m Model) promos() []models.PromoCode {
	return m.dash.Promos.List.View(m.queries[tabs.Promos])
}

func (m Model) waitlist() []models.WaitlistEntry {
	return m.dash.Waitlist.View(m.queries[tabs.Waitlist])
}

func (m Model) rowCount(tab tabs.Tab) int {
	switch tab {
	case tabs.Types:
		return len(m.event.TicketTypes)
	case tabs.Tickets:
		return len(m.tickets())
	case tabs.Payments:
		return len(m.payments())
	case tabs.Promos:
		return len(m.promos())
	case tabs.Waitlist:
		return len(m.waitlist())
	}
	return 0
}

func (m Model) selectedTicket() (models.Ticket, bool) {
	return pick(m.tickets(), m.cursors[tabs.Tickets])
}

func (m Model) selectedPayment() (models.ManualPayment, bool) {
	return pick(m.payments(), m.cursors[tabs.Payments])
}

func pick[T any](rows []T, i int) (T, bool) {
	if i < 0 || i >= len(rows) {
		var zero T
		return zero, false
	}
	return rows[i], true
}

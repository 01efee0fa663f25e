package tui

import (
	"fmt"
	"strings"
	"time"

	"event-admin/internal/inflight"
	"event-admin/internal/status"
	"event-admin/internal/tabs"
	"event-admin/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	dateLayout     = "Mon 2 Jan 2006 15:04"
	minVisibleRows = 5
	chromeLines    = 10
)

type column struct {
	title string
	width int
}

func (m Model) View() string {
	if m.blocked != nil {
		return m.styles.blocking.Render(
			status.Message(m.blocked) + "\n\n" +
				m.styles.muted.Render("Configure the admin API URL and restart. Press q to quit."),
		)
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.tabBar())
	b.WriteString("\n\n")

	switch m.mode {
	case modePromo:
		b.WriteString(m.form.view(m.styles))
	case modeDetail:
		b.WriteString(m.detailView())
	default:
		b.WriteString(m.bodyView(m.router.Active()))
	}
	b.WriteString("\n")

	switch m.mode {
	case modeSearch:
		b.WriteString(m.search.View() + "\n")
	case modeNotes:
		verb := "Confirm"
		if m.review.reject {
			verb = "Reject"
		}
		b.WriteString(m.styles.title.Render(verb+" "+m.review.reference) + "  " + m.notes.View() + "\n")
	}

	if m.status != "" {
		style := m.styles.ok
		if m.statusErr {
			style = m.styles.bad
		}
		b.WriteString(style.Render(m.status) + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) headerView() string {
	if !m.hasEvent {
		return m.styles.title.Render("Event admin")
	}
	line := m.styles.title.Render(m.event.Title)
	if m.event.Venue != "" {
		line += m.styles.muted.Render("  " + m.event.Venue)
	}
	return line
}

func (m Model) tabBar() string {
	parts := make([]string, 0, len(m.router.Tabs()))
	for i, t := range m.router.Tabs() {
		label := fmt.Sprintf("%d %s", i+1, t.Title())
		if m.loading[t] {
			label += " ..."
		}
		if i == m.router.Index() {
			parts = append(parts, m.styles.activeTab.Render(label))
		} else {
			parts = append(parts, m.styles.tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) bodyView(tab tabs.Tab) string {
	switch tab {
	case tabs.Overview:
		return m.overviewView()
	case tabs.Types:
		return m.typesView()
	}

	var b strings.Builder
	if err := m.errs[tab]; err != nil {
		b.WriteString(m.styles.bad.Render(status.Message(err)) + m.styles.muted.Render("  (r to retry)") + "\n\n")
	}
	if m.loading[tab] && !m.loaded(tab) {
		b.WriteString(m.styles.muted.Render("Loading..."))
		return b.String()
	}
	if line := m.queryLine(tab); line != "" {
		b.WriteString(m.styles.muted.Render(line) + "\n")
	}

	switch tab {
	case tabs.Tickets:
		b.WriteString(m.ticketsView())
	case tabs.Payments:
		b.WriteString(m.paymentsView())
	case tabs.Promos:
		b.WriteString(m.promosView())
	case tabs.Waitlist:
		b.WriteString(m.waitlistView())
	}
	return b.String()
}

func (m Model) loaded(tab tabs.Tab) bool {
	switch tab {
	case tabs.Tickets:
		return m.dash.Tickets.List.Loaded()
	case tabs.Payments:
		return m.dash.Payments.List.Loaded()
	case tabs.Promos:
		return m.dash.Promos.List.Loaded()
	case tabs.Waitlist:
		return m.dash.Waitlist.Loaded()
	}
	return true
}

func (m Model) queryLine(tab tabs.Tab) string {
	q := m.queries[tab]
	var parts []string
	if field := filterFields[tab]; q.Active(field) {
		parts = append(parts, field+": "+q.Filters[field])
	}
	if s := q.Search; s != "" {
		parts = append(parts, fmt.Sprintf("search: %q", s))
	}
	return strings.Join(parts, "  ")
}

func (m Model) overviewView() string {
	if !m.hasEvent {
		return m.styles.muted.Render("No events in the catalog.")
	}
	ev, now := m.event, m.dash.Now()
	a := ev.Analytics

	rows := [][2]string{
		{"Status", string(ev.Status)},
		{"Starts", when(ev.StartDate, now)},
		{"Ends", when(ev.EndDate, now)},
		{"Tickets sold", fmt.Sprintf("%s / %s (%.1f%%)",
			humanize.Comma(int64(a.TicketsSold)), humanize.Comma(int64(a.TotalTickets)), a.SellThrough())},
		{"Revenue", money(ev.Currency(), a.RevenueGenerated)},
		{"Buyers", humanize.Comma(int64(a.BuyersCount))},
	}
	if m.dash.Tickets.List.Loaded() {
		in := m.dash.Tickets.List.Count("checked_in")["yes"]
		rows = append(rows, [2]string{"Checked in", fmt.Sprintf("%s / %s",
			humanize.Comma(int64(in)), humanize.Comma(int64(m.dash.Tickets.List.Len())))})
	}
	if m.dash.Payments.List.Loaded() {
		rows = append(rows, [2]string{"Pending payments", humanize.Comma(int64(m.dash.Payments.Summary().Pending))})
	}
	rows = append(rows,
		[2]string{"Created by", ev.CreatedBy},
		[2]string{"Created", when(ev.CreatedAt, now)},
		[2]string{"Updated", when(ev.UpdatedAt, now)},
	)

	var b strings.Builder
	b.WriteString(m.keyValues(rows))
	if d := strings.TrimSpace(ev.Description); d != "" {
		b.WriteString("\n" + m.styles.muted.Render(d))
	}
	return b.String()
}

func (m Model) typesView() string {
	if len(m.event.TicketTypes) == 0 {
		return m.styles.muted.Render("This event has no ticket types.")
	}
	cols := []column{{"Name", 20}, {"Price", 14}, {"Sold", 8}, {"Available", 10}, {"Remaining", 10}, {"Sales end", 22}}
	rows := make([][]string, 0, len(m.event.TicketTypes))
	for _, tt := range m.event.TicketTypes {
		rows = append(rows, []string{
			tt.Name,
			money(tt.Currency, tt.Price),
			humanize.Comma(int64(tt.QuantitySold)),
			humanize.Comma(int64(tt.QuantityAvailable)),
			humanize.Comma(int64(tt.Remaining())),
			when(tt.SalesEnd, m.dash.Now()),
		})
	}
	return m.table(cols, rows, m.cursors[tabs.Types])
}

func (m Model) ticketsView() string {
	cols := []column{{"Code", 12}, {"Name", 20}, {"Type", 12}, {"Amount", 14}, {"Payment", 9}, {"Checked in", 10}}
	items := m.tickets()
	currency := m.event.Currency()
	rows := make([][]string, 0, len(items))
	for _, t := range items {
		rows = append(rows, []string{
			t.TicketCode, t.Name, t.TicketType, money(currency, t.FinalPrice), string(t.PaymentStatus), t.CheckedInLabel(),
		})
	}
	return m.table(cols, rows, m.cursors[tabs.Tickets])
}

func (m Model) paymentsView() string {
	s := m.dash.Payments.Summary()
	summary := fmt.Sprintf("%d total  %d pending  %d confirmed  %d rejected", s.Total, s.Pending, s.Confirmed, s.Rejected)

	cols := []column{{"Reference", 12}, {"Name", 18}, {"Type", 10}, {"Amount", 14}, {"MoMo", 12}, {"Status", 10}, {"Submitted", 14}}
	items := m.payments()
	currency := m.event.Currency()
	rows := make([][]string, 0, len(items))
	for _, p := range items {
		state := string(p.PaymentStatus)
		if m.inFlight[inflight.Key("payment", p.ReferenceCode)] {
			state += "..."
		}
		rows = append(rows, []string{
			p.ReferenceCode, p.Name, p.TicketType, money(currency, p.FinalPrice), p.MomoNumber, state,
			ago(p.CreatedAt, m.dash.Now()),
		})
	}
	return m.styles.muted.Render(summary) + "\n" + m.table(cols, rows, m.cursors[tabs.Payments])
}

func (m Model) promosView() string {
	cols := []column{{"Code", 14}, {"Type", 11}, {"Value", 12}, {"Uses", 10}, {"Valid until", 12}, {"State", 10}}
	items := m.promos()
	currency := m.event.Currency()
	rows := make([][]string, 0, len(items))
	for _, p := range items {
		value := money(currency, p.DiscountValue)
		if p.DiscountType == models.DiscountPercentage {
			value = p.DiscountValue.String() + "%"
		}
		uses := fmt.Sprintf("%d/%d", p.UsedCount, p.MaxUses)
		if p.Unlimited() {
			uses = fmt.Sprintf("%d/unlimited", p.UsedCount)
		}
		until := "-"
		if p.ValidUntil.Valid() {
			until = p.ValidUntil.Format("2006-01-02")
		}
		rows = append(rows, []string{p.Code, string(p.DiscountType), value, uses, until, m.dash.Promos.State(p)})
	}
	return m.table(cols, rows, m.cursors[tabs.Promos])
}

func (m Model) waitlistView() string {
	cols := []column{{"Name", 20}, {"Email", 26}, {"Phone", 14}, {"Referral", 12}, {"Joined", 14}}
	items := m.waitlist()
	rows := make([][]string, 0, len(items))
	for _, w := range items {
		rows = append(rows, []string{w.Name, w.Email, w.Phone, w.ReferralLabel(), ago(w.CreatedAt, m.dash.Now())})
	}
	return m.table(cols, rows, m.cursors[tabs.Waitlist])
}

func (m Model) detailView() string {
	tab := m.router.Active()
	now := m.dash.Now()
	currency := m.event.Currency()

	var title string
	var rows [][2]string
	switch tab {
	case tabs.Tickets:
		t, ok := m.selectedTicket()
		if !ok {
			return ""
		}
		title = "Ticket " + t.TicketCode
		rows = [][2]string{
			{"Name", t.Name}, {"Email", t.Email}, {"Phone", t.Phone},
			{"Type", fmt.Sprintf("%s x%d", t.TicketType, t.Quantity)},
			{"Total", money(currency, t.TotalPrice)},
			{"Discount", money(currency, t.DiscountAmount)},
			{"Paid", money(currency, t.FinalPrice)},
			{"Promo code", orDash(models.StringValue(t.PromoCode))},
			{"Payment", string(t.PaymentStatus)},
			{"Checked in", t.CheckedInLabel()},
			{"Checked in by", orDash(models.StringValue(t.CheckedInBy))},
			{"Checked in at", when(t.CheckedInAt, now)},
			{"Purchased", when(t.CreatedAt, now)},
		}
	case tabs.Payments:
		p, ok := m.selectedPayment()
		if !ok {
			return ""
		}
		title = "Payment " + p.ReferenceCode
		rows = [][2]string{
			{"Name", p.Name}, {"Email", p.UserEmail}, {"Phone", p.Phone},
			{"MoMo number", p.MomoNumber},
			{"Type", fmt.Sprintf("%s x%d", p.TicketType, p.Quantity)},
			{"Total", money(currency, p.TotalPrice)},
			{"Discount", money(currency, p.DiscountAmount)},
			{"Amount due", money(currency, p.FinalPrice)},
			{"Promo code", orDash(models.StringValue(p.PromoCode))},
			{"Status", string(p.PaymentStatus)},
			{"Reviewed by", orDash(models.StringValue(p.ConfirmedBy))},
			{"Reviewed at", when(p.ConfirmedAt, now)},
			{"Notes", orDash(models.StringValue(p.AdminNotes))},
			{"Submitted", when(p.CreatedAt, now)},
		}
	case tabs.Promos:
		p, ok := pick(m.promos(), m.cursors[tab])
		if !ok {
			return ""
		}
		title = "Promo " + p.Code
		rows = [][2]string{
			{"Discount", fmt.Sprintf("%s %s", p.DiscountValue, p.DiscountType)},
			{"Used", fmt.Sprintf("%d of %d", p.UsedCount, p.MaxUses)},
			{"Valid until", when(p.ValidUntil, now)},
			{"State", m.dash.Promos.State(p)},
			{"Created", when(p.CreatedAt, now)},
		}
	case tabs.Waitlist:
		w, ok := pick(m.waitlist(), m.cursors[tab])
		if !ok {
			return ""
		}
		title = w.Name
		rows = [][2]string{
			{"Email", w.Email}, {"Phone", w.Phone}, {"Referral", w.ReferralLabel()}, {"Joined", when(w.CreatedAt, now)},
		}
	case tabs.Types:
		tt, ok := pick(m.event.TicketTypes, m.cursors[tab])
		if !ok {
			return ""
		}
		title = tt.Name
		limit := "-"
		if tt.MaxPerPerson != nil {
			limit = humanize.Comma(int64(*tt.MaxPerPerson))
		}
		rows = [][2]string{
			{"Price", money(tt.Currency, tt.Price)},
			{"Sold", humanize.Comma(int64(tt.QuantitySold))},
			{"Remaining", humanize.Comma(int64(tt.Remaining()))},
			{"Max per person", limit},
			{"Sales start", when(tt.SalesStart, now)},
			{"Sales end", when(tt.SalesEnd, now)},
		}
	default:
		return ""
	}
	return m.styles.panel.Render(m.styles.title.Render(title) + "\n\n" + m.keyValues(rows))
}

func (m Model) keyValues(rows [][2]string) string {
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(m.styles.header.Render(fmt.Sprintf("%-17s", r[0])))
		b.WriteString(m.styles.row.Render(r[1]))
		b.WriteString("\n")
	}
	return b.String()
}

// table renders rows under cols, scrolled so the cursor row stays visible.
func (m Model) table(cols []column, rows [][]string, cursor int) string {
	var b strings.Builder
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = cell(c.title, c.width)
	}
	b.WriteString(m.styles.header.Render(strings.Join(header, " ")))
	b.WriteString("\n")

	if len(rows) == 0 {
		b.WriteString(m.styles.muted.Render("Nothing to show."))
		return b.String()
	}

	visible := m.height - chromeLines
	if visible < minVisibleRows {
		visible = minVisibleRows
	}
	offset := 0
	if cursor >= visible {
		offset = cursor - visible + 1
	}
	end := offset + visible
	if end > len(rows) {
		end = len(rows)
	}

	for i := offset; i < end; i++ {
		cells := make([]string, len(cols))
		for j, c := range cols {
			v := ""
			if j < len(rows[i]) {
				v = rows[i][j]
			}
			cells[j] = cell(v, c.width)
		}
		line := strings.Join(cells, " ")
		if i == cursor {
			b.WriteString(m.styles.selectedRow.Render(line))
		} else {
			b.WriteString(m.styles.row.Render(line))
		}
		b.WriteString("\n")
	}
	if len(rows) > end-offset {
		b.WriteString(m.styles.muted.Render(fmt.Sprintf("%d of %d", cursor+1, len(rows))))
	}
	return b.String()
}

func cell(v string, width int) string {
	r := []rune(v)
	if len(r) > width {
		r = append(r[:width-1], '…')
	}
	return string(r) + strings.Repeat(" ", width-len(r))
}

func money(currency string, amount decimal.Decimal) string {
	f, _ := amount.Float64()
	return strings.TrimSpace(currency + " " + humanize.FormatFloat("#,###.##", f))
}

func when(ts models.Timestamp, now time.Time) string {
	if !ts.Valid() {
		return "-"
	}
	return ts.Format(dateLayout) + " (" + humanize.RelTime(ts.Time, now, "ago", "from now") + ")"
}

func ago(ts models.Timestamp, now time.Time) string {
	if !ts.Valid() {
		return "-"
	}
	return humanize.RelTime(ts.Time, now, "ago", "from now")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

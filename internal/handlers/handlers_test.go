package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"event-admin/internal/actor"
	"event-admin/internal/adminapi"
	"event-admin/internal/catalog"
	"event-admin/internal/services"
	"event-admin/internal/status"
	"event-admin/models"

	"github.com/go-redis/redismock/v9"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// stubAPI serves canned collections and records the mutations it receives.
type stubAPI struct {
	tickets  []models.Ticket
	payments []models.ManualPayment
	promos   []models.PromoCode
	waitlist []models.WaitlistEntry

	listErr   error
	reviews   []adminapi.Review
	checkedBy []string
}

func (s *stubAPI) ListTickets(context.Context) ([]models.Ticket, error) {
	return s.tickets, s.listErr
}

func (s *stubAPI) GetTicket(_ context.Context, code string) (models.Ticket, error) {
	for _, t := range s.tickets {
		if t.TicketCode == code {
			return t, nil
		}
	}
	return models.Ticket{}, &status.APIError{Op: "get tickets", StatusCode: http.StatusNotFound, Message: "Ticket not found"}
}

func (s *stubAPI) CheckIn(_ context.Context, _ string, by string) (*models.Ticket, error) {
	s.checkedBy = append(s.checkedBy, by)
	return nil, nil
}

func (s *stubAPI) ListManualPayments(context.Context) ([]models.ManualPayment, error) {
	return s.payments, s.listErr
}

func (s *stubAPI) ConfirmManualPayment(_ context.Context, _ string, review adminapi.Review) (adminapi.ReviewResult, error) {
	s.reviews = append(s.reviews, review)
	return adminapi.ReviewResult{TicketCode: "TCK-9"}, nil
}

func (s *stubAPI) RejectManualPayment(_ context.Context, _ string, review adminapi.Review) (adminapi.ReviewResult, error) {
	s.reviews = append(s.reviews, review)
	return adminapi.ReviewResult{}, nil
}

func (s *stubAPI) ListPromoCodes(context.Context) ([]models.PromoCode, error) {
	return s.promos, s.listErr
}

func (s *stubAPI) CreatePromoCode(_ context.Context, draft models.PromoDraft) (adminapi.CreatedPromo, error) {
	return adminapi.CreatedPromo{Promo: models.PromoCode{ID: 7, Code: draft.Code, DiscountType: draft.DiscountType, DiscountValue: draft.DiscountValue, MaxUses: draft.MaxUses}}, nil
}

func (s *stubAPI) ListWaitlist(context.Context) ([]models.WaitlistEntry, error) {
	return s.waitlist, s.listErr
}

func newStubAPI() *stubAPI {
	ig := "instagram"
	return &stubAPI{
		tickets: []models.Ticket{
			{TicketCode: "A", Name: "Alice", TicketType: "regular", PaymentStatus: models.PaymentPaid},
			{TicketCode: "B", Name: "Bob", TicketType: "vip", PaymentStatus: models.PaymentPending},
		},
		payments: []models.ManualPayment{
			{ReferenceCode: "REF123", Name: "Alice", PaymentStatus: models.ReviewPending},
			{ReferenceCode: "REF456", Name: "Bob", PaymentStatus: models.ReviewConfirmed},
		},
		promos: []models.PromoCode{{ID: 1, Code: "OLD", DiscountType: models.DiscountFixed}},
		waitlist: []models.WaitlistEntry{
			{ID: 1, Name: "Ana"},
			{ID: 2, Name: "Ben", Referral: &ig},
		},
	}
}

func newDashboard(api services.AdminAPI) *services.Dashboard {
	cat := catalog.New([]models.Event{{
		ID:    "evt-1",
		Slug:  "midnight-madness",
		Title: "Midnight Madness",
		TicketTypes: []models.TicketType{
			{ID: "t1", Name: "Regular", Currency: "GHS", Price: decimal.NewFromInt(100), QuantityAvailable: 100, QuantitySold: 40},
		},
		Analytics: models.Analytics{TotalTickets: 100, TicketsSold: 40},
	}})
	return services.NewDashboard(services.Deps{
		API:   api,
		Actor: actor.FromContext{},
		Clock: func() time.Time { return testNow },
	}, cat)
}

func newAdmin(firstName string) *core.Record {
	collection := core.NewAuthCollection(AdminCollection)
	collection.Fields.Add(&core.TextField{Name: "firstName"})
	record := core.NewRecord(collection)
	record.Id = "admin1"
	record.Set("firstName", firstName)
	return record
}

func newEvent(method, target, body string, pathValues map[string]string) (*core.RequestEvent, *httptest.ResponseRecorder) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}

	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Request = req
	e.Response = rec
	e.Auth = newAdmin("Sam")
	return e, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &status.ValidationError{Fields: map[string]string{"code": "x"}}, http.StatusBadRequest},
		{"no actor", actor.ErrNoActor, http.StatusUnauthorized},
		{"not configured", status.ErrNotConfigured, http.StatusServiceUnavailable},
		{"in flight", status.ErrInFlight, http.StatusConflict},
		{"already checked in", status.ErrAlreadyCheckedIn, http.StatusConflict},
		{"not pending", status.ErrPaymentNotPending, http.StatusConflict},
		{"not paid", status.ErrTicketNotPaid, http.StatusUnprocessableEntity},
		{"not found", status.ErrNotFound, http.StatusNotFound},
		{"network", &status.NetworkError{Err: errors.New("timeout")}, http.StatusGatewayTimeout},
		{"api 404", &status.APIError{StatusCode: 404}, http.StatusNotFound},
		{"api 500", &status.APIError{StatusCode: 500}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusCode(tt.err))
		})
	}
}

func TestListTickets_FiltersAndSearch(t *testing.T) {
	h := NewTicketHandler(newDashboard(newStubAPI()))
	e, rec := newEvent(http.MethodGet, "/api/admin/tickets?ticket_type=regular&search=ali", "", nil)

	require.NoError(t, h.ListTickets(e))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "A", data[0].(map[string]any)["ticket_code"])
	assert.Equal(t, 2.0, body["total"])
}

func TestListTickets_NotConfigured(t *testing.T) {
	h := NewTicketHandler(services.NewDashboard(services.Deps{}, nil))
	e, rec := newEvent(http.MethodGet, "/api/admin/tickets", "", nil)

	require.NoError(t, h.ListTickets(e))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "API URL not configured", decode(t, rec)["error"])
}

func TestCheckIn_UsesSignedInAdmin(t *testing.T) {
	api := newStubAPI()
	dash := newDashboard(api)
	h := NewTicketHandler(dash)

	e, rec := newEvent(http.MethodPost, "/api/admin/tickets/A/check-in", "", map[string]string{"code": "A"})
	require.NoError(t, h.CheckIn(e))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Sam"}, api.checkedBy)

	e, rec = newEvent(http.MethodPost, "/api/admin/tickets/B/check-in", "", map[string]string{"code": "B"})
	require.NoError(t, h.CheckIn(e))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Only paid tickets can be checked in", decode(t, rec)["error"])
}

func TestCheckIn_WithoutAdminIsUnauthorized(t *testing.T) {
	h := NewTicketHandler(newDashboard(newStubAPI()))
	e, rec := newEvent(http.MethodPost, "/api/admin/tickets/A/check-in", "", map[string]string{"code": "A"})
	e.Auth = nil

	require.NoError(t, h.CheckIn(e))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetTicket_NotFound(t *testing.T) {
	h := NewTicketHandler(newDashboard(newStubAPI()))
	e, rec := newEvent(http.MethodGet, "/api/admin/tickets/ZZ", "", map[string]string{"code": "ZZ"})

	require.NoError(t, h.GetTicket(e))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Ticket not found", decode(t, rec)["error"])
}

func TestPayments_ListConfirmReject(t *testing.T) {
	api := newStubAPI()
	h := NewPaymentHandler(newDashboard(api))

	e, rec := newEvent(http.MethodGet, "/api/admin/manual-payments?payment_status=pending", "", nil)
	require.NoError(t, h.ListPayments(e))
	body := decode(t, rec)
	assert.Len(t, body["data"], 1)
	assert.Equal(t, 1.0, body["summary"].(map[string]any)["pending"])

	e, rec = newEvent(http.MethodPost, "/api/admin/manual-payments/REF123/confirm", `{"admin_notes":"checked momo"}`, map[string]string{"ref": "REF123"})
	require.NoError(t, h.ConfirmPayment(e))
	assert.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "TCK-9", data["ticket_code"])
	assert.Equal(t, adminapi.Review{ConfirmedBy: "Sam", AdminNotes: "checked momo"}, api.reviews[0])

	e, rec = newEvent(http.MethodPost, "/api/admin/manual-payments/REF123/reject", "", map[string]string{"ref": "REF123"})
	require.NoError(t, h.RejectPayment(e))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, api.reviews, 1)
}

func TestCreatePromo(t *testing.T) {
	h := NewPromoHandler(newDashboard(newStubAPI()))

	e, rec := newEvent(http.MethodPost, "/api/admin/promo-codes",
		`{"code":"vip50","discount_type":"percentage","discount_value":150,"max_uses":5,"valid_until":"2025-12-31"}`, nil)
	require.NoError(t, h.CreatePromo(e))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode(t, rec)["fields"].(map[string]any)
	assert.Equal(t, "Percentage discount cannot exceed 100%", fields["discount_value"])

	e, rec = newEvent(http.MethodPost, "/api/admin/promo-codes",
		`{"code":"vip50","discount_type":"percentage","discount_value":50,"max_uses":5,"valid_until":"2025-12-31"}`, nil)
	require.NoError(t, h.CreatePromo(e))
	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "VIP50", body["data"].(map[string]any)["code"])
	assert.Equal(t, "Promo code created successfully", body["message"])
}

func TestSuggestPromo(t *testing.T) {
	h := NewPromoHandler(newDashboard(newStubAPI()))
	e, rec := newEvent(http.MethodGet, "/api/admin/promo-codes/suggest", "", nil)

	require.NoError(t, h.SuggestPromo(e))
	data := decode(t, rec)["data"].(map[string]any)
	assert.Len(t, data["code"], 8)
	assert.Equal(t, "2025-07-01", data["valid_until"])
}

func TestEvents(t *testing.T) {
	h := NewAdminHandler(newDashboard(newStubAPI()))

	e, rec := newEvent(http.MethodGet, "/api/admin/events/midnight-madness", "", map[string]string{"eventId": "midnight-madness"})
	require.NoError(t, h.GetEvent(e))
	assert.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "GHS", data["currency"])
	assert.Equal(t, 40.0, data["sell_through"])
	types := data["ticket_types"].([]any)
	assert.Equal(t, 60.0, types[0].(map[string]any)["remaining"])

	e, rec = newEvent(http.MethodGet, "/api/admin/events/nope", "", map[string]string{"eventId": "nope"})
	require.NoError(t, h.GetEvent(e))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	e, rec = newEvent(http.MethodGet, "/api/admin/events", "", nil)
	require.NoError(t, h.ListEvents(e))
	assert.Equal(t, 1.0, decode(t, rec)["total"])
}

func TestListWaitlist(t *testing.T) {
	h := NewAdminHandler(newDashboard(newStubAPI()))
	e, rec := newEvent(http.MethodGet, "/api/admin/waitlist?referral=instagram", "", nil)

	require.NoError(t, h.ListWaitlist(e))
	body := decode(t, rec)
	assert.Len(t, body["data"], 1)
	assert.Equal(t, 1.0, body["summary"].(map[string]any)["referrals"])
}

func TestListWaitlist_RefreshFailureIsGatewayError(t *testing.T) {
	api := newStubAPI()
	api.listErr = &status.NetworkError{Op: "list waitlist", Err: errors.New("timeout")}
	h := NewAdminHandler(newDashboard(api))

	e, rec := newEvent(http.MethodGet, "/api/admin/waitlist?refresh=1", "", nil)
	require.NoError(t, h.ListWaitlist(e))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestHealth(t *testing.T) {
	e, rec := newEvent(http.MethodGet, "/health", "", nil)
	require.NoError(t, Health(nil)(e))
	assert.Equal(t, http.StatusOK, rec.Code)

	db, mock := redismock.NewClientMock()
	mock.ExpectPing().SetErr(errors.New("connection refused"))

	e, rec = newEvent(http.MethodGet, "/health", "", nil)
	require.NoError(t, Health(db)(e))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", decode(t, rec)["status"])
}

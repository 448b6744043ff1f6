package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"clinicdesk/models"
	"clinicdesk/services/application"
	"clinicdesk/services/payment"
	"clinicdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// stubApplications implements only what a test calls; the embedded nil
// interface panics on anything else.
type stubApplications struct {
	application.ApplicationService
	created *application.Outcome
	getRef  string
	getErr  error
}

func (s *stubApplications) Create(_ context.Context, _ models.ApplicationInput) (*application.Outcome, error) {
	return s.created, nil
}

func (s *stubApplications) Get(_ context.Context, ref string) (*models.ApplicationView, error) {
	s.getRef = ref
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &models.ApplicationView{Application: models.Application{ID: "a1", Number: ref}}, nil
}

type stubPayments struct {
	payment.PaymentService
	payload   []byte
	signature string
	err       error
}

func (s *stubPayments) HandleWebhook(_ context.Context, payload []byte, signature string) error {
	s.payload = payload
	s.signature = signature
	return s.err
}

func (s *stubPayments) CreateInvoice(_ context.Context, ref string, _ models.InvoiceRequest) (*models.Payment, error) {
	return &models.Payment{Application: ref}, nil
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.UseRawPath = true
	r.UnescapePathValues = true
	return r
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreateApplicationCarriesSyncWarning(t *testing.T) {
	svc := &stubApplications{created: &application.Outcome{
		Application: &models.ApplicationView{Application: models.Application{ID: "a1", Number: "HD-R-001-02/2025-0001"}},
		Sync:        &utils.SyncFailure{Op: "create", ID: "HD-R-001-02/2025-0001", Err: errors.New("mongo down")},
	}}
	r := newRouter()
	r.POST("/api/applications", NewApplicationHandler(svc).CreateApplicationHandler)

	body := `{"patient":"p1","doctor":"d1","recordDate":"2025-02-10T09:00:00Z","startTime":"09:00","endTime":"10:00"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/applications", strings.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	out := decode(t, rec)
	assert.Contains(t, out["warning"], "mongo down")
	assert.Equal(t, "HD-R-001-02/2025-0001", out["application"].(map[string]interface{})["id"])
}

func TestCreateApplicationRejectsBadTime(t *testing.T) {
	r := newRouter()
	r.POST("/api/applications", NewApplicationHandler(&stubApplications{}).CreateApplicationHandler)

	body := `{"patient":"p1","doctor":"d1","recordDate":"2025-02-10T09:00:00Z","startTime":"25:00"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/applications", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid input", decode(t, rec)["error"])
}

func TestApplicationNumberWithSlashRoutes(t *testing.T) {
	svc := &stubApplications{}
	r := newRouter()
	r.GET("/api/applications/:id", NewApplicationHandler(svc).GetApplicationHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/applications/HD-R-001-02%2F2025-0001", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HD-R-001-02/2025-0001", svc.getRef)
}

func TestErrorKindsMapToStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", utils.NewNotFound("application", "x"), http.StatusNotFound},
		{"validation", utils.NewValidationError("date", "bad"), http.StatusBadRequest},
		{"conflict", &utils.ConflictError{ID: "t1", Owner: "Dr. Rao", Date: "2025-02-10", Start: "09:00", End: "10:00"}, http.StatusConflict},
		{"unavailable", &utils.UnavailableError{Service: "payment gateway"}, http.StatusServiceUnavailable},
		{"internal", errors.New("socket closed"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter()
			r.GET("/api/applications/:id", NewApplicationHandler(&stubApplications{getErr: tc.err}).GetApplicationHandler)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/applications/x", nil))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestConflictBodyNamesInterval(t *testing.T) {
	conflict := &utils.ConflictError{ID: "t1", Owner: "Dr. Rao", Date: "2025-02-10", Start: "09:00", End: "10:00"}
	r := newRouter()
	r.GET("/api/applications/:id", NewApplicationHandler(&stubApplications{getErr: conflict}).GetApplicationHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/applications/x", nil))

	c := decode(t, rec)["conflict"].(map[string]interface{})
	assert.Equal(t, "t1", c["id"])
	assert.Equal(t, "09:00", c["startTime"])
}

func TestInternalErrorHidesDetails(t *testing.T) {
	r := newRouter()
	r.GET("/api/applications/:id", NewApplicationHandler(&stubApplications{getErr: errors.New("dial tcp 10.0.0.3:27017")}).GetApplicationHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/applications/x", nil))

	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
}

func TestWebhookPassesRawBody(t *testing.T) {
	svc := &stubPayments{}
	r := newRouter()
	r.POST("/api/payments/webhook", NewPaymentHandler(svc).WebhookHandler)

	payload := `{"id":"evt_1","type":"checkout.session.completed"}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payload, string(svc.payload))
	assert.Equal(t, "t=1,v1=abc", svc.signature)
	assert.Equal(t, true, decode(t, rec)["received"])
}

func TestWebhookBadSignature(t *testing.T) {
	svc := &stubPayments{err: utils.NewValidationError("signature", "does not verify")}
	r := newRouter()
	r.POST("/api/payments/webhook", NewPaymentHandler(svc).WebhookHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader("{}")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateInvoiceRequiresServices(t *testing.T) {
	r := newRouter()
	r.POST("/api/applications/:id/invoices", NewPaymentHandler(&stubPayments{}).CreateInvoiceHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/applications/a1/invoices", strings.NewReader(`{"services":[]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/applications/a1/invoices",
		strings.NewReader(`{"services":[{"name":"Consultation","price":500,"quantity":1}]}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestNotificationsUnavailableWithoutIntegrations(t *testing.T) {
	r := newRouter()
	h := NewNotificationHandler(nil, nil)
	r.GET("/api/whatsapp/chats", h.ChatsHandler)
	r.POST("/api/email/send", h.SendEmailHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/whatsapp/chats", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/email/send",
		strings.NewReader(`{"to":["ivan@example.com"],"subject":"Hi","body":"<p>Hi</p>","html":true}`)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRegisterValidatorsAddsTags(t *testing.T) {
	require.NoError(t, RegisterValidators())

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	assert.NoError(t, v.Var("09:30", "hhmm"))
	assert.Error(t, v.Var("9:75", "hhmm"))
	assert.NoError(t, v.Var("2025-02-10", "ymd"))
	assert.Error(t, v.Var("2025-02-30", "ymd"))
}

package contact

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/finprofile/contact-api/internal/log"
	apperrors "github.com/finprofile/contact-api/pkg/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
	RegisterPhoneValidation()
}

func newContactTestEngine(t *testing.T, notifier Notifier, requests int) *gin.Engine {
	t.Helper()

	limiter := NewContactRateLimiter(requests, time.Minute, nil, nil)
	t.Cleanup(func() { _ = limiter.Close() })

	service := NewIntakeService(log.NewLoggerWithJSONOutput(), notifier, NewMetrics(nil))

	engine := gin.New()
	engine.POST("/api/contact", submitContactHandler(service, limiter, NewMetrics(nil)))
	return engine
}

func postContact(engine *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func validBody() string {
	return `{"company":"Acme","name":"Jane Doe","phone":"+1 555-123-4567","email":"jane@acme.com","lang":"en"}`
}

func TestSubmitContactHandlerSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifier := NewMockNotifier(ctrl)
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)

	engine := newContactTestEngine(t, notifier, 5)
	rec := postContact(engine, validBody())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Form submitted successfully"}`, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestSubmitContactHandlerRateLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifier := NewMockNotifier(ctrl)
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(5)

	engine := newContactTestEngine(t, notifier, 5)

	for i := 0; i < 5; i++ {
		rec := postContact(engine, validBody())
		require.Equal(t, http.StatusOK, rec.Code, "request %d should be admitted", i+1)
	}

	rec := postContact(engine, validBody())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Too many requests. Please try again later."}`, rec.Body.String())
}

func TestSubmitContactHandlerValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{
			name:  "missing company",
			body:  `{"name":"Jane","phone":"+1 555","email":"jane@acme.com"}`,
			field: "company",
		},
		{
			name:  "missing name",
			body:  `{"company":"Acme","phone":"+1 555","email":"jane@acme.com"}`,
			field: "name",
		},
		{
			name:  "missing phone",
			body:  `{"company":"Acme","name":"Jane","email":"jane@acme.com"}`,
			field: "phone",
		},
		{
			name:  "missing email",
			body:  `{"company":"Acme","name":"Jane","phone":"+1 555"}`,
			field: "email",
		},
		{
			name:  "phone with letters",
			body:  `{"company":"Acme","name":"Jane","phone":"call-me","email":"jane@acme.com"}`,
			field: "phone",
		},
		{
			name:  "email without domain",
			body:  `{"company":"Acme","name":"Jane","phone":"+1 555","email":"jane"}`,
			field: "email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// No Notify expectations: rejected input never reaches delivery.
			engine := newContactTestEngine(t, NewMockNotifier(ctrl), 100)
			rec := postContact(engine, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp struct {
				Error   string                             `json:"error"`
				Details []apperrors.ValidationErrorResponse `json:"details"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "Validation failed", resp.Error)
			require.NotEmpty(t, resp.Details)

			found := false
			for _, detail := range resp.Details {
				if detail.Field == tt.field {
					found = true
				}
			}
			assert.True(t, found, "expected a detail for field %q, got %+v", tt.field, resp.Details)
		})
	}
}

func TestSubmitContactHandlerMalformedBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := newContactTestEngine(t, NewMockNotifier(ctrl), 100)
	rec := postContact(engine, `{"company": "Acme", `)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error   string `json:"error"`
		Details []any  `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Validation failed", resp.Error)
	assert.NotEmpty(t, resp.Details)
}

func TestSubmitContactHandlerHoneypot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// Response is indistinguishable from a real success; the notifier mock
	// has no expectations, so any delivery attempt fails the test.
	engine := newContactTestEngine(t, NewMockNotifier(ctrl), 100)
	body := `{"company":"Acme","name":"Jane Doe","phone":"+1 555-123-4567","email":"jane@acme.com","website":"https://spam.example.com"}`
	rec := postContact(engine, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Form submitted successfully"}`, rec.Body.String())
}

func TestSubmitContactHandlerNotificationFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifier := NewMockNotifier(ctrl)
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
		Return(apperrors.NewNotificationFailedError("webhook returned 500 Internal Server Error", nil))

	engine := newContactTestEngine(t, notifier, 100)
	rec := postContact(engine, validBody())

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to send notification"}`, rec.Body.String())
}

func TestSubmitContactHandlerUnclassifiedFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// An error outside the taxonomy must not be reported as a delivery
	// problem; callers get the generic 500 body.
	notifier := NewMockNotifier(ctrl)
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
		Return(errors.New("connection reset by peer"))

	engine := newContactTestEngine(t, notifier, 100)
	rec := postContact(engine, validBody())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestSubmitContactHandlerDebugDetailGating(t *testing.T) {
	t.Run("production responses carry no detail", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		notifier := NewMockNotifier(ctrl)
		notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
			Return(apperrors.NewNotificationFailedError("secret internal detail", nil))

		engine := newContactTestEngine(t, notifier, 100)
		rec := postContact(engine, validBody())

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret internal detail")
		assert.NotContains(t, rec.Body.String(), "debug")
	})

	t.Run("development responses include detail", func(t *testing.T) {
		t.Setenv("APP_ENV", "development")

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		notifier := NewMockNotifier(ctrl)
		notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
			Return(apperrors.NewNotificationFailedError("webhook unreachable", nil))

		engine := newContactTestEngine(t, notifier, 100)
		rec := postContact(engine, validBody())

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "debug")
	})
}

func TestSubmitContactHandlerSharedBudgetPerClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifier := NewMockNotifier(ctrl)
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	limiter := NewContactRateLimiter(1, time.Minute, nil, nil)
	t.Cleanup(func() { _ = limiter.Close() })
	service := NewIntakeService(log.NewLoggerWithJSONOutput(), notifier, NewMetrics(nil))

	engine := gin.New()
	engine.POST("/api/contact", submitContactHandler(service, limiter, NewMetrics(nil)))

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(validBody()))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.7:1000"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.7:2000"))
	// A different client has its own budget.
	assert.Equal(t, http.StatusOK, send("203.0.113.8:1000"))
}

func TestClientIdentifierFallback(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	c.Request.RemoteAddr = ""

	assert.Equal(t, unknownClientID, clientIdentifier(c))
}

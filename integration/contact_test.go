package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/finprofile/contact-api/config"
	"github.com/finprofile/contact-api/config/router"
	"github.com/finprofile/contact-api/domain"
	"github.com/finprofile/contact-api/internal/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// webhookStub records every delivery the API attempts.
type webhookStub struct {
	server *httptest.Server

	mu       sync.Mutex
	payloads []string
	status   int
}

func newWebhookStub() *webhookStub {
	stub := &webhookStub{status: http.StatusOK}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		stub.mu.Lock()
		stub.payloads = append(stub.payloads, string(body))
		status := stub.status
		stub.mu.Unlock()
		w.WriteHeader(status)
	}))
	return stub
}

func (s *webhookStub) setStatus(status int) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *webhookStub) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.payloads...)
}

func (s *webhookStub) close() {
	s.server.Close()
}

type ContactAPITestSuite struct {
	suite.Suite
	logger *log.Logger
}

func (suite *ContactAPITestSuite) SetupSuite() {
	suite.logger = log.NewLoggerWithJSONOutput()
}

type testApp struct {
	appConfig *config.ApplicationConfig
	server    *httptest.Server
	webhook   *webhookStub
}

// newApp builds a full application around a stub webhook. Each test gets its
// own instance so rate-limit state never leaks between tests.
func (suite *ContactAPITestSuite) newApp(allowedOrigins []string, allowAll bool, rateLimit int) *testApp {
	webhook := newWebhookStub()

	contactConfig := &config.ContactConfig{
		WebhookURL:          webhook.server.URL,
		AllowedOrigins:      allowedOrigins,
		AllowAllOrigins:     allowAll,
		RateLimitRequests:   rateLimit,
		RateLimitWindow:     time.Minute,
		NotifyTimeout:       2 * time.Second,
		NotifyRetryAttempts: 1,
	}

	appConfig := &config.ApplicationConfig{
		Logger:  suite.logger,
		Contact: contactConfig,
	}

	appConfig.RouterService = router.CreateRouterService(suite.logger, nil, &router.RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    30 * time.Second,
		OriginPolicy:      contactConfig.OriginPolicy(),
	})

	domain.SetupCoreDomain(appConfig)

	app := &testApp{
		appConfig: appConfig,
		server:    httptest.NewServer(appConfig.RouterService.GetEngine()),
		webhook:   webhook,
	}

	suite.T().Cleanup(func() {
		app.server.Close()
		app.webhook.close()
		appConfig.RouterService.Cleanup()
	})

	return app
}

func (app *testApp) postContact(body, origin string) (*http.Response, map[string]any) {
	req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

const validSubmission = `{"company":"Acme","name":"Jane Doe","phone":"+1 555-123-4567","email":"jane@acme.com","lang":"en"}`

func (suite *ContactAPITestSuite) TestSuccessfulSubmission() {
	app := suite.newApp([]string{"https://finprofile.example.com"}, false, 100)

	resp, body := app.postContact(validSubmission, "https://finprofile.example.com")

	suite.Require().NotNil(resp)
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal(true, body["success"])
	suite.Equal("Form submitted successfully", body["message"])
	suite.Equal("no-store", resp.Header.Get("Cache-Control"))
	suite.Equal("https://finprofile.example.com", resp.Header.Get("Access-Control-Allow-Origin"))

	calls := app.webhook.calls()
	suite.Require().Len(calls, 1)
	suite.Contains(calls[0], "Acme")
	suite.Contains(calls[0], "Jane Doe")
	suite.Contains(calls[0], "+1 555-123-4567")
	suite.Contains(calls[0], "jane@acme.com")
}

func (suite *ContactAPITestSuite) TestInvalidPhoneRejected() {
	app := suite.newApp(nil, true, 100)

	body := `{"company":"Acme","name":"Jane Doe","phone":"call-me","email":"jane@acme.com"}`
	resp, decoded := app.postContact(body, "")

	suite.Require().NotNil(resp)
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	suite.Equal("Validation failed", decoded["error"])

	details, ok := decoded["details"].([]any)
	suite.Require().True(ok)
	suite.Require().NotEmpty(details)

	foundPhone := false
	for _, d := range details {
		detail := d.(map[string]any)
		if detail["field"] == "phone" {
			foundPhone = true
		}
	}
	suite.True(foundPhone, "expected a detail for the phone field")

	suite.Empty(app.webhook.calls())
}

func (suite *ContactAPITestSuite) TestRateLimitExhaustion() {
	app := suite.newApp(nil, true, 5)

	for i := 0; i < 5; i++ {
		resp, _ := app.postContact(validSubmission, "")
		suite.Require().NotNil(resp)
		suite.Require().Equal(http.StatusOK, resp.StatusCode, "request %d should be admitted", i+1)
	}

	resp, decoded := app.postContact(validSubmission, "")
	suite.Require().NotNil(resp)
	suite.Equal(http.StatusTooManyRequests, resp.StatusCode)
	suite.Equal("Too many requests. Please try again later.", decoded["error"])

	// The five admitted submissions were all delivered; the throttled one was not.
	suite.Len(app.webhook.calls(), 5)
}

func (suite *ContactAPITestSuite) TestForbiddenOriginBeforeRateLimit() {
	app := suite.newApp([]string{"https://finprofile.example.com"}, false, 5)

	// Hammering from a disallowed origin must not consume the budget.
	for i := 0; i < 10; i++ {
		resp, decoded := app.postContact(validSubmission, "https://evil.example.com")
		suite.Require().NotNil(resp)
		suite.Equal(http.StatusForbidden, resp.StatusCode)
		suite.Equal("Forbidden", decoded["error"])
	}
	suite.Empty(app.webhook.calls())

	// The legitimate origin still has its full budget.
	for i := 0; i < 5; i++ {
		resp, _ := app.postContact(validSubmission, "https://finprofile.example.com")
		suite.Require().NotNil(resp)
		suite.Equal(http.StatusOK, resp.StatusCode)
	}
}

func (suite *ContactAPITestSuite) TestHoneypotSilentSuccess() {
	app := suite.newApp(nil, true, 100)

	body := `{"company":"Acme","name":"Jane Doe","phone":"+1 555-123-4567","email":"jane@acme.com","website":"https://spam.example.com"}`
	resp, decoded := app.postContact(body, "")

	suite.Require().NotNil(resp)
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal(true, decoded["success"])
	suite.Equal("Form submitted successfully", decoded["message"])

	suite.Empty(app.webhook.calls())
}

func (suite *ContactAPITestSuite) TestNotificationFailure() {
	app := suite.newApp(nil, true, 100)
	app.webhook.setStatus(http.StatusInternalServerError)

	resp, decoded := app.postContact(validSubmission, "")

	suite.Require().NotNil(resp)
	suite.Equal(http.StatusBadGateway, resp.StatusCode)
	suite.Equal("Failed to send notification", decoded["error"])
}

func (suite *ContactAPITestSuite) TestPreflight() {
	app := suite.newApp([]string{"https://finprofile.example.com"}, false, 100)

	req, _ := http.NewRequest(http.MethodOptions, app.server.URL+"/api/contact", nil)
	req.Header.Set("Origin", "https://finprofile.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	suite.Equal(http.StatusNoContent, resp.StatusCode)
	suite.Equal("https://finprofile.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	suite.Equal("POST, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
	suite.Equal("Content-Type", resp.Header.Get("Access-Control-Allow-Headers"))
	suite.Equal("86400", resp.Header.Get("Access-Control-Max-Age"))
}

func (suite *ContactAPITestSuite) TestHealthCheckReportsNotifier() {
	app := suite.newApp(nil, true, 100)

	resp, err := http.Get(app.server.URL + "/health")
	suite.Require().NoError(err)
	defer resp.Body.Close()

	suite.Equal(http.StatusOK, resp.StatusCode)

	var response map[string]any
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&response))

	suite.Equal(float64(200), response["code"])
	suite.Contains(response["message"], "health check completed")

	data := response["data"].(map[string]any)
	suite.Equal(float64(1), data["notifier"])
	suite.Contains(data, "uptime")
}

func (suite *ContactAPITestSuite) TestMetricsEndpoint() {
	app := suite.newApp(nil, true, 100)

	// Generate one delivered submission so the counter exists.
	resp, _ := app.postContact(validSubmission, "")
	suite.Require().NotNil(resp)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	metricsResp, err := http.Get(app.server.URL + "/metrics")
	suite.Require().NoError(err)
	defer metricsResp.Body.Close()

	suite.Equal(http.StatusOK, metricsResp.StatusCode)

	body, err := io.ReadAll(metricsResp.Body)
	suite.Require().NoError(err)
	suite.Contains(string(body), "contact_submissions_total")
	suite.Contains(string(body), `outcome="delivered"`)
	suite.Contains(string(body), "http_requests_total")
}

func TestContactAPITestSuite(t *testing.T) {
	suite.Run(t, new(ContactAPITestSuite))
}

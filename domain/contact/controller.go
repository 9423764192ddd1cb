package contact

import (
	"net/http"
	"time"

	"github.com/finprofile/contact-api/config"
	"github.com/finprofile/contact-api/config/router"
	"github.com/finprofile/contact-api/internal/log"
	apperrors "github.com/finprofile/contact-api/pkg/errors"
	"github.com/finprofile/contact-api/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// Sentinel identifier used when no client IP can be derived. Every such
// request shares one admission budget, which is the safer failure mode.
const unknownClientID = "unknown"

// NewContactController mounts POST /api/contact. The endpoint's response
// bodies are part of the form client's contract, so handlers write raw JSON
// instead of the ServiceResult envelope.
func NewContactController(
	service IntakeService,
	limiter ratelimit.RateLimiter,
	metrics *Metrics,
) *router.RESTController {

	return router.NewRESTController(
		"ContactController",
		"/api",
		func(rs *router.RouterService, c *router.RESTController) {
			RegisterPhoneValidation()

			rs.AddRawPostHandler(c, nil, "contact", submitContactHandler(service, limiter, metrics))
		},
	)
}

// NewContactRateLimiter builds the per-client window guarding the endpoint.
// It is separate from the router-wide limiter: the endpoint budget is strict
// and rolling, and rejections carry the endpoint's own body. With Redis
// configured the budget is shared across instances via the Lua ZSET strategy;
// otherwise it is an exact in-memory sliding window.
func NewContactRateLimiter(requests int, window time.Duration, redisClient *redis.Client, logger *log.Logger) ratelimit.RateLimiter {
	config := &ratelimit.RateLimitConfig{
		Requests: requests,
		Window:   window,
		Strategy: ratelimit.StrategySlidingWindow,
		Redis:    redisClient,
	}
	if logger != nil {
		config.Logger = logger
	}
	return ratelimit.NewRateLimiter(config)
}

func submitContactHandler(service IntakeService, limiter ratelimit.RateLimiter, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := router.GetLogger(c)

		clientID := clientIdentifier(c)

		limited, err := limiter.IsLimited("contact:" + clientID)
		if err != nil {
			// Infrastructure trouble must not block legitimate traffic.
			logger.Error("Contact rate limiter error; admitting request", "error", err, "client_id", clientID)
		}
		if limited {
			logger.Warn("Contact submission rate limited", "client_id", clientID)
			metrics.Record(OutcomeRateLimited)
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please try again later."})
			return
		}

		var req SubmitContactRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			details := apperrors.FormatValidationErrors(err, &req)
			if len(details) == 0 {
				logger.Warn("Contact submission body unparseable", "client_id", clientID, "error", err)
				metrics.Record(OutcomeMalformedBody)
				details = []apperrors.ValidationErrorResponse{
					{Field: "body", Rule: "parse", Message: "Request body must be valid JSON"},
				}
			} else {
				logger.Warn("Contact submission failed validation", "client_id", clientID, "fields", len(details))
				metrics.Record(OutcomeValidationFailed)
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": details})
			return
		}

		if err := service.Submit(c.Request.Context(), &req); err != nil {
			// Every error class except delivery failure collapses to 500: the
			// form client only distinguishes "retry later" from "tell support".
			status := http.StatusInternalServerError
			body := gin.H{"error": "Internal server error"}

			if apperrors.HTTPStatusCode(err) == apperrors.StatusBadGateway {
				status = http.StatusBadGateway
				body = gin.H{"error": "Failed to send notification"}
			}

			// Internal detail never reaches production responses.
			if config.IsDevelopmentEnv() {
				body["debug"] = err.Error()
			}

			c.JSON(status, body)
			return
		}

		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Form submitted successfully"})
	}
}

func clientIdentifier(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return unknownClientID
}

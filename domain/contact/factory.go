package contact

import (
	"github.com/finprofile/contact-api/config"
	"github.com/finprofile/contact-api/config/router"
	"github.com/finprofile/contact-api/internal/log"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

type ContactServiceFactory interface {
	CreateService() IntakeService
	CreateController() *router.RESTController
}

type DefaultContactServiceFactory struct {
	cfg         *config.ContactConfig
	logger      *log.Logger
	registerer  prometheus.Registerer
	redisClient *redis.Client

	metrics *Metrics
}

// NewContactServiceFactory wires the intake pipeline. A non-nil redisClient
// moves the endpoint's admission budget to the shared Redis window so
// horizontally scaled instances enforce one budget per client.
func NewContactServiceFactory(cfg *config.ContactConfig, logger *log.Logger, registerer prometheus.Registerer, redisClient *redis.Client) ContactServiceFactory {
	return &DefaultContactServiceFactory{
		cfg:         cfg,
		logger:      logger,
		registerer:  registerer,
		redisClient: redisClient,
		metrics:     NewMetrics(registerer),
	}
}

func (f *DefaultContactServiceFactory) CreateService() IntakeService {
	notifier := NewSlackNotifier(&NotifierConfig{
		WebhookURL:  f.cfg.WebhookURL,
		Timeout:     f.cfg.NotifyTimeout,
		MaxAttempts: f.cfg.NotifyRetryAttempts,
	}, f.logger)

	return NewIntakeService(f.logger, notifier, f.metrics)
}

func (f *DefaultContactServiceFactory) CreateController() *router.RESTController {
	service := f.CreateService()
	limiter := NewContactRateLimiter(f.cfg.RateLimitRequests, f.cfg.RateLimitWindow, f.redisClient, f.logger)

	return NewContactController(service, limiter, f.metrics)
}

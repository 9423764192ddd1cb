package domain

import (
	"github.com/finprofile/contact-api/config"
	"github.com/finprofile/contact-api/domain/contact"
	"github.com/finprofile/contact-api/domain/monitoring"
)

func SetupCoreDomain(appConfig *config.ApplicationConfig) {
	appConfig.RouterService.MountController(monitoring.NewMonitoringController(
		appConfig.Logger,
		appConfig.Cache,
		appConfig.Contact.WebhookURL != "",
	))

	contactFactory := contact.NewContactServiceFactory(
		appConfig.Contact,
		appConfig.Logger,
		appConfig.RouterService.MetricsRegisterer(),
		appConfig.RouterService.GetRedisClient(),
	)
	appConfig.RouterService.MountController(contactFactory.CreateController())
}

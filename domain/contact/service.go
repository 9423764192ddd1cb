package contact

import (
	"context"

	"github.com/finprofile/contact-api/internal/log"
	apperrors "github.com/finprofile/contact-api/pkg/errors"
)

type IntakeService interface {
	// Submit sanitizes a validated request, drops bot traffic silently and
	// forwards the rest to the notifier.
	Submit(ctx context.Context, req *SubmitContactRequest) error
}

type intakeService struct {
	logger   *log.Logger
	notifier Notifier
	metrics  *Metrics
}

func NewIntakeService(logger *log.Logger, notifier Notifier, metrics *Metrics) IntakeService {
	return &intakeService{logger: logger, notifier: notifier, metrics: metrics}
}

func (s *intakeService) Submit(ctx context.Context, req *SubmitContactRequest) error {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		logger.Error("Submit received empty request")
		return apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	// The honeypot check runs on the raw request so a bot cannot hide the
	// marker behind sanitization. The caller gets a success-shaped response
	// either way; distinguishing dropped traffic would train bots to evade
	// the trap.
	if req.IsBot() {
		logger.Info("Honeypot triggered; dropping submission", "company", req.Company)
		s.metrics.Record(OutcomeHoneypot)
		return nil
	}

	submission := ToSubmission(req)

	if err := s.notifier.Notify(ctx, submission); err != nil {
		logger.Error("Submission accepted but delivery failed", "error", err)
		s.metrics.Record(OutcomeNotifyFailed)
		return err
	}

	s.metrics.Record(OutcomeDelivered)
	return nil
}

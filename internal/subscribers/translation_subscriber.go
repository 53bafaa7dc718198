package subscribers

import (
	"context"
	"encoding/json"
	"errors"

	"catalog-service/internal/events"
	"catalog-service/internal/metrics"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

// TranslationApplier stores a translated text on its catalog row
type TranslationApplier interface {
	Apply(ctx context.Context, resp *models.TranslationResponse) error
}

// TranslationSubscriber writes translator responses back into the catalog
type TranslationSubscriber struct {
	js      jetstream.JetStream
	applier TranslationApplier
	metrics *metrics.Metrics
	durable string
	logger  *logrus.Entry
}

func NewTranslationSubscriber(js jetstream.JetStream, applier TranslationApplier, m *metrics.Metrics, logger *logrus.Logger) *TranslationSubscriber {
	return &TranslationSubscriber{
		js:      js,
		applier: applier,
		metrics: m,
		durable: "catalog-translation-responses",
		logger:  logger.WithField("component", "translation-subscriber"),
	}
}

// Start consumes translation.responses until ctx is cancelled.
func (s *TranslationSubscriber) Start(ctx context.Context) error {
	return consume(ctx, s.js, consumerSpec{
		stream:  events.StreamTranslations,
		durable: s.durable,
		subject: events.SubjectTranslationResponses,
	}, s.Handle, s.logger)
}

// Handle applies one response. Malformed messages and unknown targets are
// dropped; only storage failures are returned for redelivery.
func (s *TranslationSubscriber) Handle(ctx context.Context, data []byte) error {
	var resp models.TranslationResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		s.logger.WithError(err).Warn("Dropping undecodable translation response")
		s.metrics.Relay("in", "invalid")
		return nil
	}
	if missing := resp.Validate(); missing != "" {
		s.logger.WithField("missing", missing).Warn("Dropping incomplete translation response")
		s.metrics.Relay("in", "invalid")
		return nil
	}

	fields := logrus.Fields{
		"model":        resp.ModelName,
		"instance_id":  resp.InstanceID,
		"target_field": resp.TargetField,
		"target_lang":  resp.TargetLang,
	}

	err := s.applier.Apply(ctx, &resp)
	switch {
	case err == nil:
		s.logger.WithFields(fields).Debug("Translation applied")
		s.metrics.Relay("in", "applied")
		return nil
	case errors.Is(err, repository.ErrUnknownTranslationModel),
		errors.Is(err, repository.ErrUnknownTranslationTarget):
		s.logger.WithFields(fields).WithError(err).Warn("Dropping translation for unknown target")
		s.metrics.Relay("in", "invalid")
		return nil
	case errors.Is(err, repository.ErrTranslationInstance):
		s.logger.WithFields(fields).Info("Translation target no longer exists")
		s.metrics.Relay("in", "missing")
		return nil
	default:
		s.metrics.Relay("in", "error")
		return err
	}
}

package subscribers

import (
	"context"
	"encoding/json"
	"errors"

	"catalog-service/internal/events"
	"catalog-service/internal/metrics"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

// SpecificationImporter attaches specifications to a product
type SpecificationImporter interface {
	Replace(ctx context.Context, productID uuid.UUID, pairs []models.SpecPair) ([]models.Translatable, error)
	CopyFrom(ctx context.Context, productID, baseID uuid.UUID) error
}

// TranslationEnqueuer requests the missing translations of a saved model
type TranslationEnqueuer interface {
	Enqueue(ctx context.Context, m models.Translatable) int
}

// SpecificationSubscriber imports the specifications resolved by the ERP
type SpecificationSubscriber struct {
	js         jetstream.JetStream
	importer   SpecificationImporter
	translator TranslationEnqueuer
	metrics    *metrics.Metrics
	logger     *logrus.Entry
}

func NewSpecificationSubscriber(js jetstream.JetStream, importer SpecificationImporter, translator TranslationEnqueuer, m *metrics.Metrics, logger *logrus.Logger) *SpecificationSubscriber {
	return &SpecificationSubscriber{
		js:         js,
		importer:   importer,
		translator: translator,
		metrics:    m,
		logger:     logger.WithField("component", "specification-subscriber"),
	}
}

// Start consumes catalog.specifications.returned until ctx is cancelled.
func (s *SpecificationSubscriber) Start(ctx context.Context) error {
	return consume(ctx, s.js, consumerSpec{
		stream:  events.StreamCatalog,
		durable: "catalog-specifications-import",
		subject: events.SubjectSpecificationsReturned,
	}, s.Handle, s.logger)
}

// Handle imports one message. Specs given inline win over the base product.
func (s *SpecificationSubscriber) Handle(ctx context.Context, data []byte) error {
	var msg models.SpecificationImport
	if err := json.Unmarshal(data, &msg); err != nil || msg.ProductID == uuid.Nil {
		s.logger.Warn("Dropping invalid specification import")
		s.metrics.Relay("specs", "invalid")
		return nil
	}
	log := s.logger.WithField("product_id", msg.ProductID)

	var err error
	switch {
	case len(msg.Specs) > 0:
		var created []models.Translatable
		created, err = s.importer.Replace(ctx, msg.ProductID, msg.Specs)
		if err == nil && s.translator != nil {
			for _, m := range created {
				s.translator.Enqueue(ctx, m)
			}
		}
	case msg.BaseProductID != nil && *msg.BaseProductID != msg.ProductID:
		err = s.importer.CopyFrom(ctx, msg.ProductID, *msg.BaseProductID)
	default:
		log.Debug("Specification import carries nothing to apply")
		s.metrics.Relay("specs", "empty")
		return nil
	}

	if errors.Is(err, repository.ErrProductNotFound) {
		log.Warn("Specification import for unknown product")
		s.metrics.Relay("specs", "missing")
		return nil
	}
	if err != nil {
		s.metrics.Relay("specs", "error")
		return err
	}
	log.WithField("count", len(msg.Specs)).Info("Specifications imported")
	s.metrics.Relay("specs", "applied")
	return nil
}

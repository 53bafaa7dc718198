// Package events wires the catalog to NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

const (
	StreamCatalog      = "CATALOG_EVENTS"
	StreamTranslations = "TRANSLATIONS"

	SubjectTranslationRequests    = "translation.requests"
	SubjectTranslationResponses   = "translation.responses"
	SubjectSpecificationsReturned = "catalog.specifications.returned"
)

// Connect opens a NATS connection that keeps reconnecting for the life of the process.
func Connect(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectBufSize(8*1024*1024),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[NATS] Reconnected to %s", nc.ConnectedUrl())
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("[NATS] Disconnected: %v", err)
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Println("[NATS] Connection closed")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Printf("[NATS] Error: %v", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}

// EnsureStreams creates the catalog and translation streams when missing.
func EnsureStreams(ctx context.Context, js jetstream.JetStream) error {
	streams := []jetstream.StreamConfig{
		{
			Name:      StreamCatalog,
			Subjects:  []string{"catalog.>"},
			Retention: jetstream.LimitsPolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   jetstream.FileStorage,
			Replicas:  1,
		},
		{
			Name:      StreamTranslations,
			Subjects:  []string{"translation.>"},
			Retention: jetstream.LimitsPolicy,
			MaxAge:    3 * 24 * time.Hour,
			Storage:   jetstream.FileStorage,
			Replicas:  1,
		},
	}
	for _, cfg := range streams {
		if _, err := js.CreateOrUpdateStream(ctx, cfg); err != nil {
			return fmt.Errorf("failed to ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// ProductEvent is published on catalog.product.* after a product changes
type ProductEvent struct {
	EventID    string     `json:"eventId"`
	EventType  string     `json:"eventType"`
	Timestamp  time.Time  `json:"timestamp"`
	ProductID  uuid.UUID  `json:"productId"`
	Name       string     `json:"name,omitempty"`
	Slug       string     `json:"slug,omitempty"`
	VendorCode string     `json:"vendorCode,omitempty"`
	CategoryID *uuid.UUID `json:"categoryId,omitempty"`
	BrandID    *uuid.UUID `json:"brandId,omitempty"`
}

// Publisher sends catalog events and translation requests
type Publisher struct {
	js     jetstream.JetStream
	logger *logrus.Entry
}

// NewPublisher creates a publisher on an existing JetStream context
func NewPublisher(js jetstream.JetStream, logger *logrus.Logger) *Publisher {
	return &Publisher{
		js:     js,
		logger: logger.WithField("component", "catalog-events"),
	}
}

// PublishTranslationRequest publishes synchronously so callers can count failures.
func (p *Publisher) PublishTranslationRequest(ctx context.Context, req *models.TranslationRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	pubCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := p.js.Publish(pubCtx, SubjectTranslationRequests, data); err != nil {
		return fmt.Errorf("failed to publish translation request: %w", err)
	}
	return nil
}

// PublishProductEvent publishes in the background; failures are only logged.
func (p *Publisher) PublishProductEvent(ctx context.Context, eventType string, product *models.Product) {
	event := &ProductEvent{
		EventID:    uuid.New().String(),
		EventType:  eventType,
		Timestamp:  time.Now().UTC(),
		ProductID:  product.ID,
		Name:       product.Name,
		Slug:       product.Slug,
		VendorCode: product.VendorCode,
		CategoryID: product.CategoryID,
		BrandID:    product.BrandID,
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).Error("Failed to marshal product event")
		return
	}

	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if _, err := p.js.Publish(pubCtx, eventType, data); err != nil {
			p.logger.WithFields(logrus.Fields{
				"eventType": eventType,
				"productID": event.ProductID,
			}).WithError(err).Error("Failed to publish product event")
			return
		}
		p.logger.WithFields(logrus.Fields{
			"eventType": eventType,
			"productID": event.ProductID,
			"slug":      event.Slug,
		}).Debug("Product event published")
	}()
}

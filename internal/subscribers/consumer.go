// Package subscribers consumes relay messages from NATS JetStream.
package subscribers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

// handlerFunc processes one message payload. A nil error acks the message,
// any other error naks it for redelivery.
type handlerFunc func(ctx context.Context, data []byte) error

type consumerSpec struct {
	stream  string
	durable string
	subject string
}

// consume runs a durable explicit-ack consumer until ctx is done.
func consume(ctx context.Context, js jetstream.JetStream, spec consumerSpec, handle handlerFunc, logger *logrus.Entry) error {
	consumer, err := js.CreateOrUpdateConsumer(ctx, spec.stream, jetstream.ConsumerConfig{
		Durable:       spec.durable,
		FilterSubject: spec.subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    3,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", spec.durable, err)
	}

	msgs, err := consumer.Messages()
	if err != nil {
		return fmt.Errorf("failed to get messages iterator for %s: %w", spec.durable, err)
	}

	go func() {
		<-ctx.Done()
		msgs.Stop()
	}()

	go func() {
		for {
			msg, err := msgs.Next()
			if err != nil {
				if errors.Is(err, jetstream.ErrMsgIteratorClosed) || ctx.Err() != nil {
					return
				}
				logger.WithError(err).Warn("Error getting next message")
				time.Sleep(time.Second)
				continue
			}

			if err := handle(ctx, msg.Data()); err != nil {
				logger.WithError(err).WithField("subject", msg.Subject()).Warn("Message handling failed, requesting redelivery")
				_ = msg.Nak()
				continue
			}
			_ = msg.Ack()
		}
	}()

	logger.WithFields(logrus.Fields{
		"stream":  spec.stream,
		"subject": spec.subject,
		"durable": spec.durable,
	}).Info("Subscriber started")
	return nil
}

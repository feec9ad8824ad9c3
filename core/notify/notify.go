// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package notify publishes domain events to Kafka.

Each event is a JSON message keyed by resource. The message headers carry the
operation and the serialized logger context of the request that caused the event.

	user.created
	payment.recorded
	contact.received

Publishing is best-effort. A failed write is logged and otherwise ignored.
*/
package notify

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/relabs-tech/bistroboss/core"
	"github.com/relabs-tech/bistroboss/core/logger"
	"github.com/segmentio/kafka-go"
)

// Header keys
const (
	HeaderOperation     = "operation"
	HeaderLoggerContext = "logger-context"
)

// Event is the value of a published message
type Event struct {
	Resource  string         `json:"resource"`
	Operation core.Operation `json:"operation"`
	Payload   interface{}    `json:"payload"`
	CreatedAt time.Time      `json:"createdAt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier implements core.Notifier on a kafka writer
type KafkaNotifier struct {
	writer  messageWriter
	timeout time.Duration
}

// Builder is a builder helper for the KafkaNotifier
type Builder struct {
	// Brokers are the kafka brokers. This is mandatory.
	Brokers []string
	// Topic is the topic events are published to. This is mandatory.
	Topic string
	// Timeout limits a single publish. This is optional, defaults to 5 seconds.
	Timeout time.Duration
}

// New returns a new kafka notifier
func New(nb *Builder) *KafkaNotifier {
	if len(nb.Brokers) == 0 {
		panic("Brokers are missing")
	}
	if nb.Topic == "" {
		panic("Topic is missing")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(nb.Brokers...),
		Topic:                  nb.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newWithWriter(w, nb.Timeout)
}

func newWithWriter(w messageWriter, timeout time.Duration) *KafkaNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &KafkaNotifier{writer: w, timeout: timeout}
}

// Notify publishes an event. It does not return an error, failures are logged.
func (n *KafkaNotifier) Notify(ctx context.Context, resource string, operation core.Operation, payload interface{}) {
	rlog := logger.FromContext(ctx)
	value, err := json.Marshal(Event{
		Resource:  resource,
		Operation: operation,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		rlog.WithError(err).Errorf("Error 4951: cannot marshal %s event", resource)
		return
	}

	msg := kafka.Message{
		Key:   []byte(resource),
		Value: value,
		Headers: []kafka.Header{
			{Key: HeaderOperation, Value: []byte(operation)},
			{Key: HeaderLoggerContext, Value: logger.SerializeLoggerContext(ctx)},
		},
	}

	// the event outlives a request that was already answered
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()
	if err := n.writer.WriteMessages(wctx, msg); err != nil {
		rlog.WithError(err).Errorf("Error 4952: cannot publish %s %s event", resource, operation)
		return
	}
	rlog.Debugf("published %s %s event", resource, operation)
}

// Close flushes and closes the underlying writer
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

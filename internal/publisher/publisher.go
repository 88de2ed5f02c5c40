package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Publisher wraps a NATS JetStream connection and provides helpers for
// publishing strategy events. A nil *Publisher is a valid no-op everywhere
// it is consumed, so event emission stays optional.
type Publisher struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	subject string
	service string
}

// New creates a new Publisher with JetStream enabled.
func New(nc *nats.Conn, defaultSubject, service string) (*Publisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream init: %w", err)
	}
	return &Publisher{
		nc:      nc,
		js:      js,
		subject: defaultSubject,
		service: service,
	}, nil
}

// Publish serializes payload and publishes it to subject, falling back to the
// default subject when subject is empty. Each message carries a fresh
// correlation id header.
func (p *Publisher) Publish(_ context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("publisher: marshal payload: %w", err)
	}

	if subject == "" {
		subject = p.subject
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"correlation_id": []string{uuid.NewString()},
			"service":        []string{p.service},
			"content_type":   []string{"application/json"},
		},
	}

	if _, err := p.js.PublishMsg(msg); err != nil {
		return fmt.Errorf("publisher: publish %s: %w", subject, err)
	}
	return nil
}

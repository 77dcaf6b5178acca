package stripesync

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/mirrorstack/stripemirror/app/models"
	"github.com/mirrorstack/stripemirror/app/repository"
	"github.com/mirrorstack/stripemirror/internal/pkg/stripeapi"
)

// IngestResult classifies what an Ingest call did with a delivery.
type IngestResult int

const (
	// IngestAccepted means the delivery created a new event row and ran
	// the pipeline.
	IngestAccepted IngestResult = iota
	// IngestDuplicate means the event id was already stored. The retried
	// delivery is acknowledged without side effects.
	IngestDuplicate
	// IngestSkipped means no Stripe credentials are configured, so the
	// delivery cannot be validated and is dropped.
	IngestSkipped
)

// Ingestor turns raw webhook deliveries into stored, deduplicated events
// and runs them through the dispatcher.
type Ingestor struct {
	events         repository.EventRepository
	dispatcher     *Dispatcher
	hasCredentials bool
}

func NewIngestor(events repository.EventRepository, dispatcher *Dispatcher, hasCredentials bool) *Ingestor {
	return &Ingestor{events: events, dispatcher: dispatcher, hasCredentials: hasCredentials}
}

// Ingest stores one delivery and processes it. The event id is the
// idempotency key: however many times Stripe redelivers, exactly one row
// exists and the pipeline side effects run once. Processing failures from
// bad identifiers in the payload are swallowed so Stripe stops retrying a
// delivery that can never succeed.
func (in *Ingestor) Ingest(ctx context.Context, raw []byte) (IngestResult, error) {
	doc, err := ParseDocument(raw)
	if err != nil {
		return IngestSkipped, fmt.Errorf("parse webhook payload: %w", err)
	}
	stripeID := doc.Str("id")
	if stripeID == "" {
		return IngestSkipped, fmt.Errorf("webhook payload without event id")
	}

	if !in.hasCredentials {
		log.Warnf("dropping event %s, no stripe credentials configured", stripeID)
		return IngestSkipped, nil
	}

	event := &models.Event{
		StripeID:        stripeID,
		Kind:            doc.Str("type"),
		Livemode:        doc.Bool("livemode"),
		RawMessage:      string(raw),
		Request:         doc.JSON("request"),
		PendingWebhooks: doc.Int("pending_webhooks"),
		APIVersion:      doc.Str("api_version"),
	}

	created, stored, err := in.events.CreateIfNotExists(event)
	if err != nil {
		return IngestSkipped, fmt.Errorf("store event %s: %w", stripeID, err)
	}
	if !created {
		log.Debugf("event %s already stored, acknowledging duplicate", stripeID)
		return IngestDuplicate, nil
	}

	if err := in.dispatcher.Process(ctx, stored); err != nil {
		if stripeapi.IsInvalidRequest(err) || stripeapi.IsNotFound(err) || errors.Is(err, errUnknownCustomer) {
			log.Warnf("event %s not processable: %v", stripeID, err)
			return IngestAccepted, nil
		}
		return IngestAccepted, err
	}
	return IngestAccepted, nil
}

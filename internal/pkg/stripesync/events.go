package stripesync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mirrorstack/stripemirror/app/models"
	"github.com/mirrorstack/stripemirror/app/repository"
	"github.com/mirrorstack/stripemirror/internal/pkg/stripeapi"
)

// Validator confirms a delivered webhook event against the canonical copy
// Stripe holds, so a forged or stale delivery never mutates the mirror.
type Validator struct {
	api    stripeapi.Client
	events repository.EventRepository
}

func NewValidator(api stripeapi.Client, events repository.EventRepository) *Validator {
	return &Validator{api: api, events: events}
}

// Validate fetches the event by id from Stripe, stores the canonical copy,
// and records the verdict on the row. The delivered payload is valid when
// both copies carry a data.object and the object ids agree.
func (v *Validator) Validate(ctx context.Context, event *models.Event) error {
	canonical, err := v.api.GetEvent(ctx, event.StripeID)
	if err != nil {
		return fmt.Errorf("retrieve event %s: %w", event.StripeID, err)
	}

	// Map marshaling sorts keys, so the stored copy is deterministic.
	raw, err := json.Marshal(canonical)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.StripeID, err)
	}
	event.ValidatedMessage = string(raw)

	valid := false
	if delivered, perr := ParseDocument([]byte(event.RawMessage)); perr == nil {
		valid = sameEventObject(delivered, canonical)
	}
	event.Valid = &valid

	if err := v.events.Update(event); err != nil {
		return fmt.Errorf("store validation of event %s: %w", event.StripeID, err)
	}
	return nil
}

func sameEventObject(delivered, canonical RemoteObject) bool {
	deliveredObj := EventObject(delivered)
	canonicalObj := EventObject(canonical)
	if deliveredObj == nil || canonicalObj == nil {
		return false
	}
	return deliveredObj.Str("id") != "" && deliveredObj.Str("id") == canonicalObj.Str("id")
}

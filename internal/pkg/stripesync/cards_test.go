package stripesync

import (
	"context"
	"testing"
)

func TestCardSyncIgnoresNonCardSources(t *testing.T) {
	env := newTestEnv()
	customer := seedCustomer(t, env, "cus_1")

	card, err := env.set.Cards.SyncFromRemote(context.Background(), customer, RemoteObject{
		"id": "ba_1", "object": "bank_account", "last4": "6789",
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if card != nil {
		t.Fatalf("bank account produced a card row")
	}
	if len(env.cards.rows) != 0 {
		t.Fatalf("expected no card rows, got %d", len(env.cards.rows))
	}
}

func TestCardDefaultForCustomer(t *testing.T) {
	env := newTestEnv()
	customer := seedCustomer(t, env, "cus_1")

	card, err := env.set.Cards.SyncFromRemote(context.Background(), customer, RemoteObject{
		"id": "card_1", "object": "card", "brand": "Visa", "last4": "4242",
	})
	if err != nil || card == nil {
		t.Fatalf("sync: %v", err)
	}

	cases := []struct {
		name          string
		defaultSource string
		want          string
	}{
		{"mirrored card", "card_1", "card_1"},
		{"no default", "", ""},
		{"non-card default", "ba_1", ""},
		{"unmirrored card", "card_gone", ""},
	}
	for _, tc := range cases {
		customer.DefaultSource = tc.defaultSource
		got, err := env.set.Cards.DefaultForCustomer(customer)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if tc.want == "" && got != nil {
			t.Fatalf("%s: expected no card, got %s", tc.name, got.StripeID)
		}
		if tc.want != "" && (got == nil || got.StripeID != tc.want) {
			t.Fatalf("%s: got %+v, want %s", tc.name, got, tc.want)
		}
	}
}

func TestCardSetDefaultRefreshesCustomerAndCard(t *testing.T) {
	env := newTestEnv()
	customer := seedCustomer(t, env, "cus_1")
	env.api.customers["cus_1"] = map[string]interface{}{
		"id": "cus_1", "object": "customer", "default_source": "card_1",
	}
	env.api.sources["card_1"] = map[string]interface{}{
		"id": "card_1", "object": "card", "brand": "Mastercard", "last4": "4444",
	}

	card, err := env.set.Cards.SetDefaultCard(context.Background(), customer, "tok_visa")
	if err != nil {
		t.Fatalf("set default card: %v", err)
	}
	if card == nil || card.StripeID != "card_1" {
		t.Fatalf("card = %+v, want card_1", card)
	}

	stored, err := env.customers.GetByStripeID("cus_1")
	if err != nil {
		t.Fatalf("load customer: %v", err)
	}
	if stored.DefaultSource != "card_1" {
		t.Fatalf("customer default source = %q, want card_1", stored.DefaultSource)
	}
}

func TestCardSetDefaultPropagatesFailure(t *testing.T) {
	env := newTestEnv()
	customer := seedCustomer(t, env, "cus_missing")

	if _, err := env.set.Cards.SetDefaultCard(context.Background(), customer, "tok_visa"); err == nil {
		t.Fatalf("expected failure for unknown remote customer")
	}
}

func TestCardDeletePrefixGuard(t *testing.T) {
	env := newTestEnv()
	customer := seedCustomer(t, env, "cus_1")

	card, err := env.set.Cards.SyncFromRemote(context.Background(), customer, RemoteObject{
		"id": "card_1", "object": "card", "last4": "4242",
	})
	if err != nil || card == nil {
		t.Fatalf("sync: %v", err)
	}

	if err := env.set.Cards.Delete("ba_1"); err != nil {
		t.Fatalf("delete with foreign prefix: %v", err)
	}
	if len(env.cards.rows) != 1 {
		t.Fatalf("foreign prefix delete touched the card table")
	}

	if err := env.set.Cards.Delete("card_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(env.cards.rows) != 0 {
		t.Fatalf("expected card row to be removed")
	}
}

func TestCardDeleteCardToleratesGoneSource(t *testing.T) {
	env := newTestEnv()
	customer := seedCustomer(t, env, "cus_1")

	card, err := env.set.Cards.SyncFromRemote(context.Background(), customer, RemoteObject{
		"id": "card_1", "object": "card", "last4": "4242",
	})
	if err != nil || card == nil {
		t.Fatalf("sync: %v", err)
	}

	// Not present in the fake API, so the detach gets a 404.
	if err := env.set.Cards.DeleteCard(context.Background(), customer, "card_1"); err != nil {
		t.Fatalf("delete card: %v", err)
	}
	if len(env.cards.rows) != 0 {
		t.Fatalf("expected mirror row to be cleared despite upstream 404")
	}
}

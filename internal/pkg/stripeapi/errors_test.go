package stripeapi

import (
	"errors"
	"fmt"
	"testing"

	stripe "github.com/stripe/stripe-go/v82"
)

func TestErrorClassification(t *testing.T) {
	invalid := &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: 400}
	missing := &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, Code: stripe.ErrorCodeResourceMissing, HTTPStatusCode: 404}
	card := &stripe.Error{Type: stripe.ErrorTypeCard, HTTPStatusCode: 402}

	if !IsInvalidRequest(invalid) {
		t.Fatalf("invalid request not classified")
	}
	if IsInvalidRequest(card) {
		t.Fatalf("card error classified as invalid request")
	}
	if !IsNotFound(missing) {
		t.Fatalf("resource_missing not classified as not found")
	}
	if IsNotFound(invalid) {
		t.Fatalf("plain invalid request classified as not found")
	}
	if IsInvalidRequest(errors.New("boom")) || IsNotFound(errors.New("boom")) {
		t.Fatalf("plain error misclassified")
	}

	// Classification survives wrapping.
	wrapped := fmt.Errorf("retrieve customer: %w", missing)
	if !IsNotFound(wrapped) {
		t.Fatalf("wrapped stripe error not classified")
	}
}

func TestToDoc(t *testing.T) {
	doc, err := toDoc(struct {
		ID     string `json:"id"`
		Amount int64  `json:"amount"`
	}{ID: "cus_1", Amount: 500})
	if err != nil {
		t.Fatalf("toDoc: %v", err)
	}
	if doc["id"] != "cus_1" {
		t.Fatalf("id = %v", doc["id"])
	}
	if doc["amount"] != float64(500) {
		t.Fatalf("amount = %v", doc["amount"])
	}
}

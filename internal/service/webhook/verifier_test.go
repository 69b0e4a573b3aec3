package webhook_test

import (
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	stripewebhook "github.com/stripe/stripe-go/v82/webhook"

	"github.com/bazaarmkt/settlement/internal/service/webhook"
)

func TestNewStripeVerifierRequiresSecret(t *testing.T) {
	if _, err := webhook.NewStripeVerifier(""); !errors.Is(err, webhook.ErrSecretMissing) {
		t.Fatalf("error = %v, want ErrSecretMissing", err)
	}
}

func TestStripeVerifierRoundTrip(t *testing.T) {
	verifier, err := webhook.NewStripeVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewStripeVerifier: %v", err)
	}

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","amount":100}}}`)
	at := time.Now()
	sig := stripewebhook.ComputeSignature(at, payload, testSecret)
	header := fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))

	event, err := verifier.Verify(payload, header)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if event.ID != "evt_1" {
		t.Errorf("event id = %q, want evt_1", event.ID)
	}
	if event.Type != "payment_intent.succeeded" {
		t.Errorf("event type = %q, want payment_intent.succeeded", event.Type)
	}
	if len(event.Data) == 0 {
		t.Error("expected raw object data to be carried through")
	}
}

func TestStripeVerifierRejections(t *testing.T) {
	verifier, err := webhook.NewStripeVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewStripeVerifier: %v", err)
	}

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{}}}`)
	at := time.Now()
	sig := stripewebhook.ComputeSignature(at, payload, testSecret)
	validHeader := fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))

	staleAt := at.Add(-time.Hour)
	staleSig := stripewebhook.ComputeSignature(staleAt, payload, testSecret)
	staleHeader := fmt.Sprintf("t=%d,v1=%s", staleAt.Unix(), hex.EncodeToString(staleSig))

	wrongSig := stripewebhook.ComputeSignature(at, payload, "whsec_other")
	wrongHeader := fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(wrongSig))

	tests := []struct {
		name    string
		payload []byte
		header  string
	}{
		{"tampered payload", append([]byte(nil), append(payload, '!')...), validHeader},
		{"wrong secret", payload, wrongHeader},
		{"stale timestamp", payload, staleHeader},
		{"empty header", payload, ""},
		{"garbage header", payload, "t=abc,v1=zz"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := verifier.Verify(tc.payload, tc.header); !errors.Is(err, webhook.ErrVerification) {
				t.Fatalf("error = %v, want ErrVerification", err)
			}
		})
	}
}

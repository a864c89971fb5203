// Package billing verifies and dispatches Stripe webhook deliveries.
//
// Provisioning and subscription bookkeeping are left to Handlers; the
// package itself only verifies, parses and routes.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const SignatureHeader = "Stripe-Signature"

const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventSubscriptionCreated   = "customer.subscription.created"
	EventSubscriptionCancelled = "customer.subscription.deleted"
)

var (
	ErrMissingSignature = errors.New("missing stripe-signature header")
	ErrSignature        = errors.New("webhook signature verification failed")
	ErrPayload          = errors.New("malformed webhook payload")
)

// Handlers reacts to the subscription lifecycle.
type Handlers interface {
	CheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error
	SubscriptionCreated(ctx context.Context, sub *stripe.Subscription) error
	SubscriptionCancelled(ctx context.Context, sub *stripe.Subscription) error
}

// Deduper remembers processed event ids. MarkWebhookEvent claims id and
// reports first=false when it is already claimed. ForgetWebhookEvent releases
// a claim whose dispatch failed so the provider's retry is processed.
type Deduper interface {
	MarkWebhookEvent(ctx context.Context, id, eventType string) (first bool, err error)
	ForgetWebhookEvent(ctx context.Context, id string) error
}

type Processor struct {
	secret   string
	handlers Handlers
	dedup    Deduper
	log      *zap.Logger
}

func NewProcessor(secret string, handlers Handlers, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	if handlers == nil {
		handlers = LogHandlers{Log: log}
	}
	return &Processor{secret: secret, handlers: handlers, log: log}
}

// WithDeduper makes redeliveries of an already processed event a no-op.
func (p *Processor) WithDeduper(d Deduper) *Processor {
	p.dedup = d
	return p
}

// Verify checks the signature header against the shared secret and parses
// the event. Nothing is dispatched.
func (p *Processor) Verify(payload []byte, signature string) (stripe.Event, error) {
	if signature == "" {
		return stripe.Event{}, ErrMissingSignature
	}

	evt, err := webhook.ConstructEventWithOptions(payload, signature, p.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if errors.Is(err, webhook.ErrNotSigned) || errors.Is(err, webhook.ErrNoValidSignature) ||
			errors.Is(err, webhook.ErrInvalidHeader) || errors.Is(err, webhook.ErrTooOld) {
			return stripe.Event{}, fmt.Errorf("%w: %v", ErrSignature, err)
		}
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrPayload, err)
	}
	return evt, nil
}

// Process verifies the delivery and dispatches it on its type. Unhandled
// types are acknowledged and ignored. The returned string is the event type.
func (p *Processor) Process(ctx context.Context, payload []byte, signature string) (string, error) {
	evt, err := p.Verify(payload, signature)
	if err != nil {
		return "", err
	}
	eventType := string(evt.Type)

	if p.dedup != nil && evt.ID != "" {
		first, err := p.dedup.MarkWebhookEvent(ctx, evt.ID, eventType)
		if err != nil {
			return eventType, fmt.Errorf("record webhook event: %w", err)
		}
		if !first {
			p.log.Info("skipping duplicate webhook delivery", zap.String("id", evt.ID), zap.String("type", eventType))
			return eventType, nil
		}
	}

	if err := p.dispatch(ctx, evt); err != nil {
		if p.dedup != nil && evt.ID != "" {
			if ferr := p.dedup.ForgetWebhookEvent(context.WithoutCancel(ctx), evt.ID); ferr != nil {
				p.log.Error("failed to release webhook event",
					zap.String("id", evt.ID),
					zap.String("type", eventType),
					zap.Error(ferr),
				)
			}
		}
		return eventType, err
	}
	return eventType, nil
}

func (p *Processor) dispatch(ctx context.Context, evt stripe.Event) error {
	switch evt.Type {
	case EventCheckoutCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
			return fmt.Errorf("%w: %v", ErrPayload, err)
		}
		return p.handlers.CheckoutCompleted(ctx, &session)

	case EventSubscriptionCreated, EventSubscriptionCancelled:
		var sub stripe.Subscription
		if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
			return fmt.Errorf("%w: %v", ErrPayload, err)
		}
		if evt.Type == EventSubscriptionCreated {
			return p.handlers.SubscriptionCreated(ctx, &sub)
		}
		return p.handlers.SubscriptionCancelled(ctx, &sub)

	default:
		p.log.Debug("ignoring webhook event", zap.String("type", string(evt.Type)))
		return nil
	}
}

// LogHandlers only logs each lifecycle event.
type LogHandlers struct {
	Log *zap.Logger
}

func (h LogHandlers) CheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	h.Log.Info("payment succeeded", zap.String("session", session.ID))
	return nil
}

func (h LogHandlers) SubscriptionCreated(ctx context.Context, sub *stripe.Subscription) error {
	h.Log.Info("new subscription", zap.String("subscription", sub.ID))
	return nil
}

func (h LogHandlers) SubscriptionCancelled(ctx context.Context, sub *stripe.Subscription) error {
	h.Log.Info("subscription cancelled", zap.String("subscription", sub.ID))
	return nil
}

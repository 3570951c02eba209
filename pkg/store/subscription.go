package store

import (
	"context"
	"net/http"

	"github.com/cinaverse/go-client/pkg/apiclient"
)

// Plans returns the available subscription plans.
func (s *Store) Plans(ctx context.Context) ([]Plan, error) {
	return fetchAs[[]Plan](ctx, s, keyPlans, apiclient.PathPlans)
}

// Plan returns a single plan.
func (s *Store) Plan(ctx context.Context, id string) (Plan, error) {
	return fetchAs[Plan](ctx, s, planKey(id), apiclient.PlanPath(id))
}

// Subscription returns the user's current subscription state.
func (s *Store) Subscription(ctx context.Context) (SubscriptionStatus, error) {
	return fetchAs[SubscriptionStatus](ctx, s, keySubscription, apiclient.PathSubscription)
}

// CreatePaymentIntent starts a plan purchase. Nothing is cached; the intent
// is single-use.
func (s *Store) CreatePaymentIntent(ctx context.Context, planID string) (PaymentIntent, error) {
	var intent PaymentIntent
	body := map[string]string{"planId": planID}
	if err := s.client.Do(ctx, http.MethodPost, apiclient.PathCreatePaymentIntent, body, &intent); err != nil {
		return PaymentIntent{}, err
	}
	return intent, nil
}

// VerifyPayment confirms a completed payment and invalidates the cached
// subscription snapshot so the next read sees the new state.
func (s *Store) VerifyPayment(ctx context.Context, input VerifyPaymentInput) (SubscriptionStatus, error) {
	var status SubscriptionStatus
	if err := s.client.Do(ctx, http.MethodPost, apiclient.PathVerifyPayment, input, &status); err != nil {
		return SubscriptionStatus{}, err
	}
	s.coord.Invalidate(ctx, keySubscription)
	return status, nil
}

// Unsubscribe cancels the subscription and invalidates the cached snapshot.
func (s *Store) Unsubscribe(ctx context.Context) error {
	if err := s.client.Do(ctx, http.MethodPost, apiclient.PathUnsubscribe, nil, nil); err != nil {
		return err
	}
	s.coord.Invalidate(ctx, keySubscription)
	return nil
}

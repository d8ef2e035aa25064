package checkout

import (
	"context"

	"storefront/internal/cart"
)

// Session is the opaque handle returned by the payment gateway.
type Session struct {
	ID  string `json:"session_id"`
	URL string `json:"checkout_url"`
}

// Gateway creates hosted checkout sessions. reference ties the session back to
// the local settlement record.
type Gateway interface {
	CreateSession(ctx context.Context, reference string, req SettlementRequest) (Session, error)
}

// Result is a prepared settlement plus the gateway session for it.
type Result struct {
	Request SettlementRequest
	Warning *ExcludedWarning
	Session Session
}

// Settler prepares a settlement and hands it to the gateway.
type Settler struct {
	gateway Gateway
}

func NewSettler(gateway Gateway) *Settler {
	return &Settler{gateway: gateway}
}

// Settle prepares the settlement and opens a gateway session. Gateway failures
// are returned unchanged and never retried. The cart is left untouched; it is
// cleared only once the gateway confirms completion.
func (s *Settler) Settle(ctx context.Context, reference string, c *cart.Aggregate, availability Availability) (*Result, error) {
	req, warning, err := PrepareSettlement(c, availability)
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateSession(ctx, reference, req)
	if err != nil {
		return nil, err
	}

	return &Result{
		Request: req,
		Warning: warning,
		Session: session,
	}, nil
}

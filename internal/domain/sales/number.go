package sales

import (
	"context"
	"time"

	"gasworld/pkg/numerator"
)

// NumberSource issues sequential sales document numbers.
type NumberSource interface {
	Next(ctx context.Context) (string, error)
}

// NumeratorSource issues numbers like "SLS-2026-00001" from the shared
// database-backed sequence.
type NumeratorSource struct {
	svc *numerator.Service
	cfg numerator.Config
}

// NewNumeratorSource wraps the numerator service with the sales numbering
// scheme.
func NewNumeratorSource(svc *numerator.Service) *NumeratorSource {
	return &NumeratorSource{
		svc: svc,
		cfg: numerator.DefaultConfig("SLS"),
	}
}

func (n *NumeratorSource) Next(ctx context.Context) (string, error) {
	return n.svc.GetNextNumber(ctx, n.cfg, numerator.DefaultOptions(), time.Now())
}

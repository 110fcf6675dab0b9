package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/autoimport-storefront/internal/cart"
	"github.com/angelmondragon/autoimport-storefront/internal/invoice"
	pkgerrors "github.com/angelmondragon/autoimport-storefront/pkg/errors"
	"github.com/angelmondragon/autoimport-storefront/pkg/logger"
	"github.com/angelmondragon/autoimport-storefront/pkg/metrics"
)

type cartSettler interface {
	Settle(ctx context.Context, fn func(cart.Snapshot) error) error
}

type invoiceRenderer interface {
	Generate(clientName string, snap cart.Snapshot) (*invoice.Document, error)
}

// Service turns the current cart into an invoice and empties it.
type Service interface {
	Checkout(ctx context.Context, clientName string) (*invoice.Document, error)
}

type service struct {
	cart     cartSettler
	invoices invoiceRenderer
	logg     *logger.Logger
	metrics  *metrics.StorefrontMetrics
}

// NewService builds the checkout service.
func NewService(store cartSettler, invoices invoiceRenderer, logg *logger.Logger, m *metrics.StorefrontMetrics) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if invoices == nil {
		return nil, fmt.Errorf("invoice generator required")
	}
	return &service{cart: store, invoices: invoices, logg: logg, metrics: m}, nil
}

// Checkout renders the invoice from the pre-clear cart and clears it in the
// same critical section. No document is returned unless the clear persisted.
func (s *service) Checkout(ctx context.Context, clientName string) (*invoice.Document, error) {
	clientName = strings.TrimSpace(clientName)
	if clientName == "" {
		s.metrics.IncCheckout(metrics.ResultRejected)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client name is required").
			WithDetails(map[string]any{"field": "client_name"})
	}

	var doc *invoice.Document
	err := s.cart.Settle(ctx, func(snap cart.Snapshot) error {
		started := time.Now()
		rendered, err := s.invoices.Generate(clientName, snap)
		if err != nil {
			return err
		}
		s.metrics.ObserveInvoiceDuration(time.Since(started))
		doc = rendered
		return nil
	})
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
			s.metrics.IncCheckout(metrics.ResultRejected)
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty; nothing to check out")
		}
		s.metrics.IncCheckout(metrics.ResultFailure)
		return nil, err
	}

	s.metrics.IncCheckout(metrics.ResultSuccess)
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"invoice": doc.Filename,
			"total":   doc.Total.StringFixed(2),
			"pages":   doc.Pages,
		})
		s.logg.Info(logCtx, "checkout.completed")
	}
	return doc, nil
}

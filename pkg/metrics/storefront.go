package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by checkout and catalog counters.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultRejected = "rejected"
)

// StorefrontMetrics records cart, checkout and catalog activity.
type StorefrontMetrics struct {
	mutations      *prometheus.CounterVec
	cartLines      prometheus.Gauge
	cartItems      prometheus.Gauge
	cartValue      prometheus.Gauge
	checkouts      *prometheus.CounterVec
	catalogFetches *prometheus.CounterVec
	invoiceSeconds prometheus.Histogram
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	m := &StorefrontMetrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Applied cart mutations by operation.",
		}, []string{"op"}),
		cartLines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cart_lines",
			Help: "Distinct vehicles currently in the cart.",
		}),
		cartItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cart_items",
			Help: "Total quantity currently in the cart.",
		}),
		cartValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cart_total_value",
			Help: "Grand total of the cart in store currency.",
		}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_total",
			Help: "Checkout attempts by result.",
		}, []string{"result"}),
		catalogFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_fetch_total",
			Help: "Catalog fetch attempts by result.",
		}, []string{"result"}),
		invoiceSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "invoice_generation_seconds",
			Help:    "Time spent rendering invoice documents.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.mutations, m.cartLines, m.cartItems, m.cartValue, m.checkouts, m.catalogFetches, m.invoiceSeconds)
	return m
}

// IncCartMutation counts one applied mutation.
func (m *StorefrontMetrics) IncCartMutation(op string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// ObserveCart sets the cart gauges.
func (m *StorefrontMetrics) ObserveCart(lines, items int, total float64) {
	if m == nil || m.cartLines == nil {
		return
	}
	m.cartLines.Set(float64(lines))
	m.cartItems.Set(float64(items))
	m.cartValue.Set(total)
}

func (m *StorefrontMetrics) IncCheckout(result string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *StorefrontMetrics) IncCatalogFetch(result string) {
	if m == nil || m.catalogFetches == nil {
		return
	}
	m.catalogFetches.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *StorefrontMetrics) ObserveInvoiceDuration(d time.Duration) {
	if m == nil || m.invoiceSeconds == nil {
		return
	}
	m.invoiceSeconds.Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

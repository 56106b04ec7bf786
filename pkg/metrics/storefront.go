package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Storefront records cart and promotion engine activity.
type Storefront struct {
	cartMutations *prometheus.CounterVec
	indexRefresh  *prometheus.CounterVec
	indexSize     prometheus.Gauge
	feedDuration  *prometheus.HistogramVec
	discount      prometheus.Histogram
	nonFinite     *prometheus.CounterVec
}

// NewStorefront registers the storefront metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewStorefront(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	s := &Storefront{
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Cart store mutations by operation.",
		}, []string{"op"}),
		indexRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promotion_index_refreshes_total",
			Help: "Promotion index rebuilds by feed and outcome.",
		}, []string{"feed", "outcome"}),
		indexSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "promotion_index_size",
			Help: "Active (category, size) promotions currently indexed.",
		}),
		feedDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "promotion_feed_fetch_duration_seconds",
			Help:    "Duration of promotion feed fetches in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"feed"}),
		discount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cart_discount_amount",
			Help:    "Promotion discount reported per priced checkout.",
			Buckets: []float64{0, 0.5, 1, 2, 5, 10, 20, 50},
		}),
		nonFinite: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricing_non_finite_total",
			Help: "Non-finite monetary aggregates replaced with zero.",
		}, []string{"figure"}),
	}
	reg.MustRegister(s.cartMutations, s.indexRefresh, s.indexSize, s.feedDuration, s.discount, s.nonFinite)
	return s
}

// CartMutation counts one cart store mutation.
func (s *Storefront) CartMutation(op string) {
	if s == nil || s.cartMutations == nil {
		return
	}
	s.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IndexRefreshed records a promotion index rebuild and its resulting size.
func (s *Storefront) IndexRefreshed(feed string, size int) {
	if s == nil || s.indexRefresh == nil {
		return
	}
	s.indexRefresh.WithLabelValues(normalizeLabel(feed), "success").Inc()
	s.indexSize.Set(float64(size))
}

// IndexRefreshFailed records a feed fetch or decode failure.
func (s *Storefront) IndexRefreshFailed(feed string) {
	if s == nil || s.indexRefresh == nil {
		return
	}
	s.indexRefresh.WithLabelValues(normalizeLabel(feed), "failure").Inc()
}

// ObserveFeedFetch records how long a feed fetch took.
func (s *Storefront) ObserveFeedFetch(feed string, d time.Duration) {
	if s == nil || s.feedDuration == nil {
		return
	}
	s.feedDuration.WithLabelValues(normalizeLabel(feed)).Observe(d.Seconds())
}

// ObserveDiscount records the discount of a priced cart.
func (s *Storefront) ObserveDiscount(amount float64) {
	if s == nil || s.discount == nil {
		return
	}
	s.discount.Observe(amount)
}

// NonFinite counts an aggregate that was replaced with zero.
func (s *Storefront) NonFinite(figure string) {
	if s == nil || s.nonFinite == nil {
		return
	}
	s.nonFinite.WithLabelValues(normalizeLabel(figure)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestStorefrontExportsCountersAndGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStorefront(reg)

	m.CartMutation("add")
	m.CartMutation("add")
	m.CartMutation("")
	m.IndexRefreshed("poll", 4)
	m.IndexRefreshFailed("pubsub")
	m.ObserveFeedFetch("poll", 120*time.Millisecond)
	m.ObserveDiscount(2)
	m.NonFinite("total")

	if got := testutil.ToFloat64(m.cartMutations.WithLabelValues("add")); got != 2 {
		t.Fatalf("expected add=2, got %f", got)
	}
	if got := testutil.ToFloat64(m.cartMutations.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected empty op to be labelled unknown, got %f", got)
	}
	if got := testutil.ToFloat64(m.indexSize); got != 4 {
		t.Fatalf("expected index size 4, got %f", got)
	}
	if got := testutil.ToFloat64(m.nonFinite.WithLabelValues("total")); got != 1 {
		t.Fatalf("expected non-finite total=1, got %f", got)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "promotion_index_refreshes_total", "outcome", "failure"); err != nil {
		t.Fatalf("fetch refresh failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected one failed refresh, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "promotion_feed_fetch_duration_seconds", "feed", "poll"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestStorefrontNilSafe(t *testing.T) {
	var m *Storefront
	m.CartMutation("add")
	m.IndexRefreshed("poll", 1)
	m.IndexRefreshFailed("poll")
	m.ObserveFeedFetch("poll", time.Second)
	m.ObserveDiscount(1)
	m.NonFinite("discount")

	noop := NewStorefront(nil)
	noop.CartMutation("add")
	noop.IndexRefreshed("poll", 1)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}

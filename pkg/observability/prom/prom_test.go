package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/tabula/pkg/observability"
)

func TestCollectorCounts(t *testing.T) {
	c := New(prometheus.NewRegistry())
	ctx := context.Background()

	c.OnParseComplete(ctx, "csv", 12, time.Millisecond, nil)
	c.OnParseComplete(ctx, "csv", 99, time.Millisecond, errors.New("bad"))
	c.OnBuildComplete(ctx, 2, 24, time.Millisecond, nil)
	c.OnCacheHit(ctx, "source")
	c.OnCacheMiss(ctx, "source")
	c.OnCacheSet(ctx, "dataset", 512)
	c.OnResponse(ctx, "GET", "example.com", "/a.csv", 200, time.Millisecond)
	c.OnError(ctx, "GET", "example.com", "/a.csv", errors.New("refused"))

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"parse records", testutil.ToFloat64(c.parseRecords.WithLabelValues("csv")), 12},
		{"build targets", testutil.ToFloat64(c.buildTargets), 2},
		{"build points", testutil.ToFloat64(c.buildPoints), 24},
		{"cache hit", testutil.ToFloat64(c.cacheEvents.WithLabelValues("source", "hit")), 1},
		{"cache miss", testutil.ToFloat64(c.cacheEvents.WithLabelValues("source", "miss")), 1},
		{"cache bytes", testutil.ToFloat64(c.cacheBytes.WithLabelValues("dataset")), 512},
		{"http 200", testutil.ToFloat64(c.httpResponses.WithLabelValues("GET", "example.com", "200")), 1},
		{"http errors", testutil.ToFloat64(c.httpErrors.WithLabelValues("GET", "example.com")), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestNewPanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	defer func() {
		if recover() == nil {
			t.Error("second New on the same registry should panic")
		}
	}()
	New(reg)
}

func TestRegister(t *testing.T) {
	observability.Reset()
	t.Cleanup(observability.Reset)

	c := New(prometheus.NewRegistry())
	c.Register()
	if observability.Pipeline() != c || observability.Cache() != c || observability.HTTP() != c {
		t.Error("Register should install the collector for every hook kind")
	}
}

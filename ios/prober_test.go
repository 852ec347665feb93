package ios_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hawkingrei/greenhouse/ios"
)

func TestProberSamplesAndExposesLatest(t *testing.T) {
	var n int64
	p := ios.NewProber(".", 5*time.Millisecond, func(ios.Usage) { atomic.AddInt64(&n, 1) })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	if atomic.LoadInt64(&n) == 0 {
		t.Fatal("expected at least one sample")
	}
	if p.Latest().Total == 0 {
		t.Fatal("expected Latest() to reflect a real sample")
	}
}

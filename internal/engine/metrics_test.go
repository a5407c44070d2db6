package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatMetricsListsEveryKey(t *testing.T) {
	out := FormatMetrics()
	for _, k := range metricKeys {
		assert.Contains(t, out, k+" ")
	}
	assert.Equal(t, len(metricKeys), strings.Count(out, "\n"))
}

func TestIncrStrategyWin(t *testing.T) {
	before := GetMetrics()["browser_scrape_wins"]
	IncrStrategyWin("browser_scrape")
	IncrStrategyWin("unknown")
	assert.Equal(t, before+1, GetMetrics()["browser_scrape_wins"])
}

func TestTrackOperationPassesError(t *testing.T) {
	err := TrackOperation(context.Background(), "op", time.Hour, func(context.Context) error {
		return context.Canceled
	})
	assert.ErrorIs(t, err, context.Canceled)
}

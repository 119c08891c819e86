package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreRequestsExposition(t *testing.T) {
	ScoreRequests.Reset()
	ScoreRequests.WithLabelValues(OutcomeFallback).Inc()
	ScoreRequests.WithLabelValues(OutcomeFallback).Inc()
	ScoreRequests.WithLabelValues(OutcomeOK).Inc()

	expected := `
# HELP fairbounty_score_requests_total Score proxy requests, by outcome.
# TYPE fairbounty_score_requests_total counter
fairbounty_score_requests_total{outcome="fallback"} 2
fairbounty_score_requests_total{outcome="ok"} 1
`
	require.NoError(t, testutil.CollectAndCompare(ScoreRequests, strings.NewReader(expected)))
}

func TestDataActionDurationObserved(t *testing.T) {
	DataActionDuration.Reset()
	DataActionDuration.WithLabelValues("get-stats").Observe(0.01)

	assert.Equal(t, 1, testutil.CollectAndCount(DataActionDuration))
}

package metrics

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePrometheusIncludesRouteCounter(t *testing.T) {
	RouteTotal.WithLabelValues("details_agent").Inc()

	var buf bytes.Buffer
	require.NoError(t, WritePrometheus(&buf))
	assert.Contains(t, buf.String(), `plantify_route_total{stage="details_agent"}`)
}

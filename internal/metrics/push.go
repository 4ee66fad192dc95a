package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// JobName is the Pushgateway job label for the lookup run.
const JobName = "postcode_lookup"

// Push sends every metric gathered from g to the Pushgateway at url,
// replacing the previous push of the same job.
func Push(ctx context.Context, url string, g prometheus.Gatherer) error {
	if err := push.New(url, JobName).Gatherer(g).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}

	return nil
}

package utils

import (
	"fmt"
	"os"

	"github.com/DataDog/datadog-go/statsd"
	. "github.com/Luismorlan/factfeed/utils/log"
)

const (
	DDOG_FACT_CHECK_COUNTER  = "factfeed.fact_check.finished"
	DDOG_INGEST_COUNTER      = "factfeed.ingest.articles"
	DDOG_INGEST_FAIL_COUNTER = "factfeed.ingest.failures"
	DDOG_VOTE_COUNTER        = "factfeed.votes"
	DDOG_RATE_LIMITED        = "factfeed.http.rate_limited"
)

// NewDogStatsdClient connects to the local dogstatsd agent. Without an agent
// configured it returns a no-op client so callers never need a nil check.
func NewDogStatsdClient() statsd.ClientInterface {
	host := os.Getenv("DD_AGENT_HOST")
	if host == "" {
		return &statsd.NoOpClient{}
	}
	client, err := statsd.New(fmt.Sprintf("%s:8125", host))
	if err != nil {
		Log.WithError(err).Warn("fail to create statsd client, metrics disabled")
		return &statsd.NoOpClient{}
	}
	return client
}

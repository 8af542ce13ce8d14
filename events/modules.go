package events

import (
	"context"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/Luismorlan/factfeed/utils"
	. "github.com/Luismorlan/factfeed/utils/log"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Invalidator drops cached derived data.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// CacheInvalidator bumps the analytics cache version whenever a fact check
// finishes, verdicts feed every analytics aggregate.
type CacheInvalidator struct {
	name     string
	EventBus message.Subscriber
	Cache    Invalidator
}

func NewCacheInvalidator(name string, bus message.Subscriber, cache Invalidator) *CacheInvalidator {
	return &CacheInvalidator{name: name, EventBus: bus, Cache: cache}
}

func (c *CacheInvalidator) RunModule(ctx context.Context) error {
	messages, err := c.EventBus.Subscribe(ctx, TOPIC_FACT_CHECK_FINISHED)
	if err != nil {
		return err
	}
	for msg := range messages {
		msg.Ack()
		evt, err := DecodeFactCheckFinished(msg)
		if err != nil {
			Log.WithError(err).Warn("drop malformed fact check event")
			continue
		}
		if err := c.Cache.Invalidate(ctx); err != nil {
			Log.WithError(err).WithField("article_id", evt.ArticleID).Warn("cannot invalidate analytics cache")
		}
	}
	return nil
}

func (c *CacheInvalidator) Name() string {
	return c.name
}

// Reporter listens to fact check events and forwards outcome counters to
// Datadog for monitoring purpose.
type Reporter struct {
	name     string
	EventBus message.Subscriber
	Statsd   statsd.ClientInterface
}

func NewReporter(name string, bus message.Subscriber, client statsd.ClientInterface) *Reporter {
	return &Reporter{name: name, EventBus: bus, Statsd: client}
}

// ReportFactCheck sends one counter tagged with mode and outcome.
func ReportFactCheck(evt FactCheckFinished, client statsd.ClientInterface) {
	outcome := evt.Status
	if evt.TimedOut {
		outcome = "TIMEOUT"
	}
	err := client.Incr(utils.DDOG_FACT_CHECK_COUNTER,
		[]string{"mode:" + evt.Mode, "outcome:" + outcome}, 1)
	if err != nil {
		Log.Infoln("cannot report fact check outcome")
	}
}

func (r *Reporter) RunModule(ctx context.Context) error {
	messages, err := r.EventBus.Subscribe(ctx, TOPIC_FACT_CHECK_FINISHED)
	if err != nil {
		return err
	}
	for msg := range messages {
		msg.Ack()
		evt, err := DecodeFactCheckFinished(msg)
		if err != nil {
			continue
		}
		ReportFactCheck(evt, r.Statsd)
	}
	return nil
}

func (r *Reporter) Name() string {
	return r.name
}

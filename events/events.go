// Package events carries in-process notifications between factfeed modules
// over a watermill gochannel. Delivery is best effort: a message published
// while nobody subscribes is dropped.
package events

import (
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
)

const (
	// A fact check job reached COMPLETE or FAILED.
	TOPIC_FACT_CHECK_FINISHED = "topic.fact_check_finished"

	outputChannelBuffer = 100
)

// FactCheckFinished is published on every terminal job transition.
type FactCheckFinished struct {
	ArticleID  string    `json:"article_id"`
	JobID      string    `json:"job_id"`
	Mode       string    `json:"mode"`
	Status     string    `json:"status"`
	Verdict    string    `json:"verdict,omitempty"`
	Error      string    `json:"error,omitempty"`
	TimedOut   bool      `json:"timed_out"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewEventBus creates the bus shared by the modules of one process.
func NewEventBus() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            outputChannelBuffer,
			BlockPublishUntilSubscriberAck: false,
		},
		watermill.NewStdLogger(false, false),
	)
}

// Publisher publishes typed events onto the bus.
type Publisher struct {
	EventBus message.Publisher
}

func NewPublisher(bus message.Publisher) *Publisher {
	return &Publisher{EventBus: bus}
}

// FactCheckFinished publishes evt. A nil publisher drops the event.
func (p *Publisher) FactCheckFinished(evt FactCheckFinished) error {
	if p == nil || p.EventBus == nil {
		return nil
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "marshal fact check event")
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	return p.EventBus.Publish(TOPIC_FACT_CHECK_FINISHED, msg)
}

// DecodeFactCheckFinished parses a message payload.
func DecodeFactCheckFinished(msg *message.Message) (FactCheckFinished, error) {
	var evt FactCheckFinished
	err := json.Unmarshal(msg.Payload, &evt)
	return evt, errors.Wrap(err, "unmarshal fact check event")
}

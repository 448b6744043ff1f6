package notification

import (
	"context"
	"encoding/json"

	"clinicdesk/models"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/cockroachdb/errors"
)

// DashboardTopic carries every dashboard event.
const DashboardTopic = "dashboard.events"

// metadata key holding the event name
const eventNameKey = "event"

// Bus is the in-process sink. SSE clients subscribe to it.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates a non-persistent gochannel bus. Clients that connect later do
// not see earlier events.
func NewBus(logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            64,
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		}, logger),
	}
}

func (b *Bus) Name() string { return "bus" }

// Publish encodes event as JSON with its name in the metadata.
func (b *Bus) Publish(_ context.Context, event models.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrapf(err, "encode event %s", event.Name)
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.Metadata.Set(eventNameKey, event.Name)
	return b.pubsub.Publish(DashboardTopic, msg)
}

// Subscribe streams events until ctx is done.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, DashboardTopic)
}

// EventName reads the event name stored by Publish.
func EventName(msg *message.Message) string {
	return msg.Metadata.Get(eventNameKey)
}

func (b *Bus) Close() error {
	return b.pubsub.Close()
}

package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/sangkips/investify-docs/internal/domain/event"
	"github.com/sangkips/investify-docs/pkg/logger"
)

const (
	metadataTenantID   = "tenant_id"
	metadataDocumentID = "document_id"
)

// PubSub is the in-process event bus. It publishes document events and is the
// subscriber side of the Router.
type PubSub struct {
	pubsub *gochannel.GoChannel
	logger *logger.Logger
}

// NewPubSub creates a gochannel backed bus
func NewPubSub(outputBuffer int64, log *logger.Logger) *PubSub {
	if outputBuffer <= 0 {
		outputBuffer = 256
	}
	goChannel := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            outputBuffer,
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		newLoggerAdapter(log),
	)

	return &PubSub{
		pubsub: goChannel,
		logger: log,
	}
}

// Publish encodes the event as JSON and publishes it on the topic named after the event
func (p *PubSub) Publish(ctx context.Context, evt *event.DocumentEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", evt.Name, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(metadataTenantID, evt.TenantID.String())
	msg.Metadata.Set(metadataDocumentID, evt.DocumentID.String())
	msg.SetContext(ctx)

	if err := p.pubsub.Publish(evt.Name, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", evt.Name, err)
	}

	p.logger.Debugw("event published",
		"event", evt.Name,
		"event_id", evt.ID,
		"document_id", evt.DocumentID,
	)
	return nil
}

// Subscriber exposes the subscribing side for the router
func (p *PubSub) Subscriber() message.Subscriber {
	return p.pubsub
}

// Publisher exposes the raw publishing side, used for dead letters
func (p *PubSub) Publisher() message.Publisher {
	return p.pubsub
}

// Close stops delivery to all subscribers
func (p *PubSub) Close() error {
	return p.pubsub.Close()
}

var _ event.Publisher = (*PubSub)(nil)

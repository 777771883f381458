package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/event"
	"github.com/sangkips/investify-docs/internal/infrastructure/repository"
	"github.com/sangkips/investify-docs/pkg/logger"
)

// Router delivers published document events to the registered handlers
type Router struct {
	router     *message.Router
	subscriber message.Subscriber
	logger     *logger.Logger
}

// DeadLetterTopic receives events a handler still failed after every retry
const DeadLetterTopic = "documents_dlq"

// NewRouter creates a new message router reading from the given subscriber.
// Events that exhaust their retries are published to DeadLetterTopic on
// deadLetters and acked.
func NewRouter(subscriber message.Subscriber, deadLetters message.Publisher, maxRetries int, log *logger.Logger) (*Router, error) {
	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: 10 * time.Second,
	}, newLoggerAdapter(log))
	if err != nil {
		return nil, err
	}

	poisonQueue, err := middleware.PoisonQueue(deadLetters, DeadLetterTopic)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(
		poisonQueue,
		middleware.Recoverer,
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      maxRetries,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Multiplier:      2,
			OnRetryHook: func(retryNum int, delay time.Duration) {
				log.Infow("retrying message",
					"retry_number", retryNum,
					"max_retries", maxRetries,
					"delay", delay,
				)
			},
		}.Middleware,
	)

	return &Router{
		router:     router,
		subscriber: subscriber,
		logger:     log,
	}, nil
}

// Register subscribes the handler to each of its topics
func (r *Router) Register(h event.Handler) {
	for _, topic := range h.Topics() {
		r.router.AddNoPublisherHandler(
			fmt.Sprintf("%s.%s", h.Name(), topic),
			topic,
			r.subscriber,
			r.wrap(h),
		)
	}
}

func (r *Router) wrap(h event.Handler) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		var evt event.DocumentEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			// A malformed payload will never decode; drop it.
			r.logger.Errorw("discarding undecodable event",
				"handler", h.Name(),
				"message_uuid", msg.UUID,
				"error", err,
			)
			return nil
		}

		ctx := msg.Context()
		if tenantID, err := uuid.Parse(msg.Metadata.Get(metadataTenantID)); err == nil {
			ctx = repository.WithTenant(ctx, tenantID)
		}

		if err := h.Handle(ctx, &evt); err != nil {
			r.logger.Errorw("handler failed",
				"handler", h.Name(),
				"event", evt.Name,
				"document_id", evt.DocumentID,
				"correlation_id", middleware.MessageCorrelationID(msg),
				"message_uuid", msg.UUID,
				"error", err,
			)
			return err
		}
		return nil
	}
}

// Run starts the router and blocks until ctx is cancelled or Close is called
func (r *Router) Run(ctx context.Context) error {
	r.logger.Info("starting event router")
	return r.router.Run(ctx)
}

// Running is closed once all handlers are subscribed
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// Close gracefully shuts down the router
func (r *Router) Close() error {
	r.logger.Info("closing event router")
	return r.router.Close()
}

// Package transport builds the publisher/subscriber pair for the configured
// message broker. RabbitMQ is the default; NATS JetStream and an in-memory
// channel transport are available behind the same interface.
package transport

import (
	"context"
	"fmt"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	configpkg "github.com/queueworks/tabq/internal/config"
)

// Transport combines the publisher and subscriber bound to one broker
// connection.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Build initialises the transport selected by conf.PubSubSystem. Connection
// failures surface here and are fatal to the caller.
func Build(ctx context.Context, conf *configpkg.Config, logger watermill.LoggerAdapter) (Transport, error) {
	if conf == nil {
		return Transport{}, fmt.Errorf("tabq: config is required")
	}

	switch strings.ToLower(conf.PubSubSystem) {
	case "", "rabbitmq":
		return rabbitTransport(conf, logger)
	case "nats":
		return natsTransport(conf, logger)
	case "channel":
		return channelTransport(conf, logger)
	default:
		return Transport{}, fmt.Errorf("tabq: unsupported pubsub system %q", conf.PubSubSystem)
	}
}

// DeclareQueues declares every queue the worker touches so that enqueued work
// and unreported status survive a broker restart. Declaration is idempotent;
// a rejected declaration (for example conflicting parameters on an existing
// queue) is returned as an error and must be treated as fatal at startup.
// Subscribers without an initialization step (in-memory channel) declare
// nothing.
func DeclareQueues(sub message.Subscriber, queues ...string) error {
	initializer, ok := sub.(message.SubscribeInitializer)
	if !ok {
		return nil
	}

	for _, queue := range queues {
		if err := initializer.SubscribeInitialize(queue); err != nil {
			return fmt.Errorf("tabq: declaring queue %q: %w", queue, err)
		}
	}
	return nil
}

package transport

import (
	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	configpkg "github.com/queueworks/tabq/internal/config"
)

var (
	NATSPublisherFactory = func(cfg wmnats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return wmnats.NewPublisher(cfg, logger)
	}
	NATSSubscriberFactory = func(cfg wmnats.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
		return wmnats.NewSubscriber(cfg, logger)
	}
)

// natsTransport uses JetStream so queues keep the same durability guarantees
// as the RabbitMQ transport. A single subscriber goroutine mirrors the
// one-delivery-in-flight behaviour of the AMQP prefetch setting.
func natsTransport(conf *configpkg.Config, logger watermill.LoggerAdapter) (Transport, error) {
	marshaler := &wmnats.NATSMarshaler{}
	natsOptions := []nc.Option{
		nc.Name(conf.WorkerName),
		nc.RetryOnFailedConnect(true),
		nc.MaxReconnects(-1),
	}
	jetStream := wmnats.JetStreamConfig{
		AutoProvision: true,
		DurablePrefix: conf.WorkerName,
	}

	publisher, err := NATSPublisherFactory(
		wmnats.PublisherConfig{
			URL:         conf.NATSURL,
			NatsOptions: natsOptions,
			Marshaler:   marshaler,
			JetStream:   jetStream,
		},
		logger,
	)
	if err != nil {
		return Transport{}, err
	}

	subscriber, err := NATSSubscriberFactory(
		wmnats.SubscriberConfig{
			URL:              conf.NATSURL,
			NatsOptions:      natsOptions,
			Unmarshaler:      marshaler,
			JetStream:        jetStream,
			SubscribersCount: 1,
		},
		logger,
	)
	if err != nil {
		return Transport{}, err
	}

	return Transport{Publisher: publisher, Subscriber: subscriber}, nil
}

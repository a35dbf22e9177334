package transport

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"

	configpkg "github.com/queueworks/tabq/internal/config"
)

var (
	AMQPConnectionFactory = func(cfg amqp.ConnectionConfig, logger watermill.LoggerAdapter) (*amqp.ConnectionWrapper, error) {
		return amqp.NewConnection(cfg, logger)
	}
	AMQPPublisherFactory = func(cfg amqp.Config, logger watermill.LoggerAdapter, conn *amqp.ConnectionWrapper) (message.Publisher, error) {
		return amqp.NewPublisherWithConnection(cfg, logger, conn)
	}
	AMQPSubscriberFactory = func(cfg amqp.Config, logger watermill.LoggerAdapter, conn *amqp.ConnectionWrapper) (message.Subscriber, error) {
		return amqp.NewSubscriberWithConnection(cfg, logger, conn)
	}
)

func rabbitTransport(conf *configpkg.Config, logger watermill.LoggerAdapter) (Transport, error) {
	conn, amqpConfig, err := setupAMQP(conf, logger)
	if err != nil {
		return Transport{}, err
	}
	publisher, err := AMQPPublisherFactory(amqpConfig, logger, conn)
	if err != nil {
		return Transport{}, err
	}
	subscriber, err := AMQPSubscriberFactory(amqpConfig, logger, conn)
	if err != nil {
		return Transport{}, err
	}
	return Transport{Publisher: publisher, Subscriber: subscriber}, nil
}

// setupAMQP opens one connection shared by publisher and subscriber. Queues
// are durable and named after the topic; deliveries are persistent (the
// default marshaler). Prefetch is fixed at one unacknowledged delivery per
// consumer, trading local throughput for fairness across worker instances.
func setupAMQP(conf *configpkg.Config, logger watermill.LoggerAdapter) (*amqp.ConnectionWrapper, amqp.Config, error) {
	amqpConfig := amqp.NewDurableQueueConfig(conf.MessagingURI)
	amqpConfig.Consume.Qos.PrefetchCount = 1

	amqpConn, err := AMQPConnectionFactory(amqp.ConnectionConfig{
		AmqpURI:   conf.MessagingURI,
		TLSConfig: nil,
		Reconnect: amqp.DefaultReconnectConfig(),
	}, logger)
	if err != nil {
		return nil, amqp.Config{}, err
	}
	return amqpConn, amqpConfig, nil
}

package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/queueworks/tabq/internal/ids"
	"github.com/queueworks/tabq/internal/jsoncodec"
	"github.com/queueworks/tabq/internal/logging"
	"github.com/queueworks/tabq/internal/metadata"
	"github.com/queueworks/tabq/internal/tracing"
)

// ResultPublisher publishes the terminal outcome of a task to the results
// queue.
type ResultPublisher struct {
	publisher message.Publisher
	tracer    *tracing.Tracer
	logger    logging.ServiceLogger
	worker    string
	system    string
	now       func() time.Time
}

func NewResultPublisher(publisher message.Publisher, tracer *tracing.Tracer, logger logging.ServiceLogger, workerName, system string) *ResultPublisher {
	return &ResultPublisher{
		publisher: publisher,
		tracer:    tracer,
		logger:    logger,
		worker:    workerName,
		system:    system,
		now:       time.Now,
	}
}

// Publish emits the result message with the current trace context in its
// headers. Unlike status reporting a failure here means the task's outcome
// would be lost, so the error is returned for the caller to surface; there is
// no application-level retry beyond what the connection layer provides, and
// the original task is not requeued.
func (p *ResultPublisher) Publish(ctx context.Context, taskID string, result any) error {
	ctx, span := p.tracer.Start(ctx, p.system+".publish "+QueueResults,
		trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.system", p.system),
		attribute.String("messaging.destination.name", QueueResults),
		attribute.String("messaging.operation", "publish"),
		attribute.String("task.id", taskID),
	)

	body := ResultMessage{
		TaskID:      taskID,
		Worker:      p.worker,
		Result:      result,
		CompletedAt: p.now().UTC().Format(time.RFC3339Nano),
	}
	payload, err := jsoncodec.Marshal(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("marshalling result message: %w", err)
	}

	msg := message.NewMessage(ids.NewMessageID(), payload)
	headers := metadata.Metadata{}
	p.tracer.Inject(ctx, headers)
	msg.Metadata = metadata.ToWatermill(headers)

	if err := p.publisher.Publish(QueueResults, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("publishing result for task %q: %w", taskID, err)
	}

	p.logger.Info("task result published", logging.LogFields{"task_id": taskID})
	return nil
}

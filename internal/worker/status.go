package worker

import (
	"context"
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

// StatusReporter publishes lifecycle status events to the task_status queue.
type StatusReporter struct {
	publisher message.Publisher
	tracer    *tracing.Tracer
	logger    logging.ServiceLogger
	worker    string
	system    string
	now       func() time.Time
}

func NewStatusReporter(publisher message.Publisher, tracer *tracing.Tracer, logger logging.ServiceLogger, workerName, system string) *StatusReporter {
	return &StatusReporter{
		publisher: publisher,
		tracer:    tracer,
		logger:    logger,
		worker:    workerName,
		system:    system,
		now:       time.Now,
	}
}

// Report publishes one status event for the task, carrying the current trace
// context in the message headers. Reporting is best effort: any failure is
// logged and swallowed, so a momentarily unreachable broker can never abort
// task processing.
func (r *StatusReporter) Report(ctx context.Context, taskID string, status Status, extra map[string]string) {
	ctx, span := r.tracer.Start(ctx, r.system+".publish "+QueueTaskStatus,
		trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.system", r.system),
		attribute.String("messaging.destination.name", QueueTaskStatus),
		attribute.String("messaging.operation", "publish"),
		attribute.String("task.id", taskID),
		attribute.String("task.status", string(status)),
	)

	event := StatusEvent{
		TaskID:    taskID,
		Status:    status,
		Worker:    r.worker,
		Timestamp: r.now().UTC().Format(time.RFC3339Nano),
		Extra:     extra,
	}
	payload, err := jsoncodec.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("marshalling status event failed", err, logging.LogFields{"task_id": taskID})
		return
	}

	msg := message.NewMessage(ids.NewMessageID(), payload)
	headers := metadata.Metadata{}
	r.tracer.Inject(ctx, headers)
	msg.Metadata = metadata.ToWatermill(headers)

	if err := r.publisher.Publish(QueueTaskStatus, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("publishing status update failed", err, logging.LogFields{
			"task_id": taskID,
			"status":  string(status),
		})
		return
	}

	r.logger.Debug("status update published", logging.LogFields{
		"task_id": taskID,
		"status":  string(status),
	})
}

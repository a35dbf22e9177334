// Package worker implements the consumer loop: it pulls one task at a time
// from the tasks queue, drives the registered processor, reports lifecycle
// status, publishes the terminal result, and acknowledges the delivery on
// every path. A delivery is never requeued by rejecting it; failed processing
// is reported through the status and results queues instead.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/queueworks/tabq/internal/analysis"
	errspkg "github.com/queueworks/tabq/internal/errors"
	"github.com/queueworks/tabq/internal/jsoncodec"
	"github.com/queueworks/tabq/internal/logging"
	"github.com/queueworks/tabq/internal/metadata"
	"github.com/queueworks/tabq/internal/tracing"
)

// skipReason is reported with every skipped status event.
const skipReason = "not an analyze task"

// ProcessorFunc turns a task into its business outcome. A returned error is a
// business outcome too: it is published as the task's result rather than
// failing the delivery.
type ProcessorFunc func(ctx context.Context, task Task) (any, error)

// Options configures a Worker. Name, Logger, Tracer, Publisher, and
// Subscriber are required; Metrics is optional.
type Options struct {
	Name string
	// MessagingSystem names the broker in span attributes. Defaults to
	// "rabbitmq".
	MessagingSystem string
	Logger          logging.ServiceLogger
	Tracer          *tracing.Tracer
	Publisher       message.Publisher
	Subscriber      message.Subscriber
	Metrics         *Metrics
}

// Worker consumes tasks and publishes status and results. One delivery is
// in flight at a time; the broker-side prefetch limit enforces this, not
// in-process locking.
type Worker struct {
	name       string
	system     string
	logger     logging.ServiceLogger
	tracer     *tracing.Tracer
	subscriber message.Subscriber
	status     *StatusReporter
	results    *ResultPublisher
	processors map[string]ProcessorFunc
	metrics    *Metrics
	router     *message.Router
}

// New constructs a Worker with the analyze processor registered. Additional
// task kinds can be registered before Run.
func New(opts Options) (*Worker, error) {
	if opts.Name == "" {
		return nil, errspkg.ErrWorkerNameRequired
	}
	if opts.Logger == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	if opts.Tracer == nil {
		return nil, errspkg.ErrTracerRequired
	}
	if opts.Publisher == nil {
		return nil, errspkg.ErrPublisherRequired
	}
	if opts.Subscriber == nil {
		return nil, errspkg.ErrSubscriberRequired
	}
	if opts.MessagingSystem == "" {
		opts.MessagingSystem = "rabbitmq"
	}

	w := &Worker{
		name:       opts.Name,
		system:     opts.MessagingSystem,
		logger:     opts.Logger,
		tracer:     opts.Tracer,
		subscriber: opts.Subscriber,
		status:     NewStatusReporter(opts.Publisher, opts.Tracer, opts.Logger, opts.Name, opts.MessagingSystem),
		results:    NewResultPublisher(opts.Publisher, opts.Tracer, opts.Logger, opts.Name, opts.MessagingSystem),
		processors: map[string]ProcessorFunc{},
		metrics:    opts.Metrics,
	}
	if err := w.RegisterProcessor(TaskKindAnalyze, analyzeTask); err != nil {
		return nil, err
	}

	router, err := message.NewRouter(message.RouterConfig{}, logging.NewWatermillAdapter(opts.Logger))
	if err != nil {
		return nil, err
	}
	router.AddNoPublisherHandler("task-consumer", QueueTasks, opts.Subscriber, w.handle)
	w.router = router

	return w, nil
}

// RegisterProcessor maps a task kind to its processor. Kinds without a
// processor are skipped, never failed.
func (w *Worker) RegisterProcessor(kind string, fn ProcessorFunc) error {
	if kind == "" {
		return errspkg.ErrTaskKindRequired
	}
	if fn == nil {
		return errspkg.ErrProcessorRequired
	}
	w.processors[kind] = fn
	return nil
}

// Run consumes deliveries until ctx is cancelled. Cancellation lets the
// in-flight handler finish before the subscription closes.
func (w *Worker) Run(ctx context.Context) error {
	return w.router.Run(ctx)
}

func analyzeTask(_ context.Context, task Task) (any, error) {
	return analysis.Process(task.Payload)
}

// handle is the per-delivery state machine. It always returns nil so the
// delivery is acknowledged on every path; errors become observable status or
// result messages instead of redeliveries.
func (w *Worker) handle(msg *message.Message) error {
	start := time.Now()

	headers := metadata.FromWatermill(msg.Metadata)
	ctx := w.tracer.Extract(msg.Context(), headers)
	ctx, span := w.tracer.Start(ctx, w.system+".process task",
		trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.system", w.system),
		attribute.String("messaging.source.name", QueueTasks),
		attribute.String("messaging.operation", "process"),
	)

	// Bound before any fallible step so the error path always has a
	// well-defined (possibly empty) id to report against.
	taskID := ""

	var task Task
	if err := jsoncodec.Unmarshal(msg.Payload, &task); err != nil {
		w.fail(ctx, span, taskID, fmt.Errorf("decoding task envelope: %w", err))
		w.metrics.observe(outcomeErrored, time.Since(start))
		return nil
	}
	taskID = task.ID
	span.SetAttributes(
		attribute.String("task.id", taskID),
		attribute.String("task.type", task.Kind),
		attribute.String("messaging.message.id", taskID),
	)
	w.logger.Info("processing task", logging.LogFields{
		"task_id":   taskID,
		"task_type": task.Kind,
	})

	w.status.Report(ctx, taskID, StatusProcessing, nil)

	processor, ok := w.processors[task.Kind]
	if !ok {
		w.logger.Info("skipping task", logging.LogFields{
			"task_id":   taskID,
			"task_type": task.Kind,
		})
		w.status.Report(ctx, taskID, StatusSkipped, map[string]string{"reason": skipReason})
		span.AddEvent("task.skipped", trace.WithAttributes(attribute.String("reason", skipReason)))
		w.metrics.observe(outcomeSkipped, time.Since(start))
		return nil
	}

	outcome := w.process(ctx, processor, task)

	if err := w.results.Publish(ctx, taskID, outcome); err != nil {
		w.fail(ctx, span, taskID, err)
		w.metrics.observe(outcomeErrored, time.Since(start))
		return nil
	}

	span.AddEvent("task.completed")
	w.logger.Info("completed task", logging.LogFields{"task_id": taskID})
	w.metrics.observe(outcomeCompleted, time.Since(start))
	return nil
}

// process runs the processor inside its own span. A processor error is
// converted into the published error descriptor: a failed analysis is a valid
// business outcome, not a consumer fault.
func (w *Worker) process(ctx context.Context, processor ProcessorFunc, task Task) any {
	ctx, span := w.tracer.Start(ctx, "task.process_data")
	defer span.End()
	span.SetAttributes(attribute.String("task.id", task.ID))

	outcome, err := processor(ctx, task)
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return outcome
	}

	span.SetAttributes(attribute.String("task.error", err.Error()))
	span.SetStatus(codes.Error, err.Error())

	var perr *analysis.ProcessingError
	if errors.As(err, &perr) {
		return perr
	}
	return &analysis.ProcessingError{Message: err.Error(), Kind: "error"}
}

func (w *Worker) fail(ctx context.Context, span trace.Span, taskID string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	w.logger.Error("error processing message", err, logging.LogFields{"task_id": taskID})
	w.status.Report(ctx, taskID, StatusError, map[string]string{"error": err.Error()})
}

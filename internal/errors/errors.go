package errors

import sterrors "errors"

var (
	ErrMessagingURIRequired = sterrors.New("tabq: messaging URI is required")
	ErrNATSURLRequired      = sterrors.New("tabq: NATS URL is required")
	ErrWorkerNameRequired   = sterrors.New("tabq: worker name is required")
	ErrLoggerRequired       = sterrors.New("tabq: logger is required")
	ErrTracerRequired       = sterrors.New("tabq: tracer is required")
	ErrPublisherRequired    = sterrors.New("tabq: publisher is required")
	ErrSubscriberRequired   = sterrors.New("tabq: subscriber is required")
	ErrProcessorRequired    = sterrors.New("tabq: processor function is required")
	ErrTaskKindRequired     = sterrors.New("tabq: task kind is required")
)

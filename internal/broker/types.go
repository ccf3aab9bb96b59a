package broker

import (
	"context"

	"riskgrade/pkg/models"
)

type Producer interface {
	Publish(ctx context.Context, topic string, record models.RecordEnvelope) error
	Close() error
}

type Consumer interface {
	Consume(ctx context.Context, topic string, handler HandlerFunc) error
	Close() error
	SetServiceName(name string)
}

type HandlerFunc func(ctx context.Context, record models.RecordEnvelope) error

package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/healthquery/medical-rag/internal/core/domain"
	"github.com/healthquery/medical-rag/internal/infrastructure/resilience"
)

func classifyNATSError(err error) resilience.Outcome {
	if err == nil {
		return resilience.Outcome{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Outcome{Retryable: false, CountsAgainst: false}
	}
	if errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrDisconnected) {
		return resilience.Outcome{Retryable: true, CountsAgainst: true}
	}
	return resilience.Outcome{Retryable: false, CountsAgainst: true}
}

func wrapTemporaryIfNeeded(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyNATSError(err).Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, "nats publish", err)
	}
	return err
}

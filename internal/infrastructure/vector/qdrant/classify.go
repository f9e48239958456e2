package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/healthquery/medical-rag/internal/infrastructure/resilience"
)

type statusError struct {
	Operation string
	Code      int
	Status    string
	Body      string
}

func (e *statusError) Error() string {
	if e == nil {
		return "qdrant status error"
	}
	if e.Body == "" {
		return fmt.Sprintf("qdrant %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("qdrant %s status: %s: %s", e.Operation, e.Status, e.Body)
}

func asStatusError(err error, target **statusError) bool {
	return errors.As(err, target)
}

func classifyQdrantError(err error) resilience.Outcome {
	if err == nil {
		return resilience.Outcome{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Outcome{Retryable: false, CountsAgainst: false}
	}

	var statusErr *statusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return resilience.Outcome{Retryable: true, CountsAgainst: true}
		default:
			return resilience.Outcome{Retryable: false, CountsAgainst: false}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.Outcome{Retryable: true, CountsAgainst: true}
	}
	return resilience.Outcome{Retryable: false, CountsAgainst: true}
}

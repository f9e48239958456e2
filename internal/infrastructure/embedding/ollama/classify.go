package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/healthquery/medical-rag/internal/core/domain"
	"github.com/healthquery/medical-rag/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "ollama status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("ollama %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ollama %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func classifyTransportError(err error) resilience.Outcome {
	if err == nil {
		return resilience.Outcome{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Outcome{Retryable: false, CountsAgainst: false}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if retryableStatus(statusErr.StatusCode) {
			return resilience.Outcome{Retryable: true, CountsAgainst: true}
		}
		return resilience.Outcome{Retryable: false, CountsAgainst: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.Outcome{Retryable: true, CountsAgainst: true}
	}

	return resilience.Outcome{Retryable: false, CountsAgainst: true}
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyTransportError(err).Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

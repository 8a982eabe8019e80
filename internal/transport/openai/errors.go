package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
)

const codeInsufficientQuota = "insufficient_quota"

// classify converts a go-openai error into a *domain.UpstreamError.
// The sentinel (ErrEmbeddingProviderError or ErrClassifierError) stays in the chain
// so HTTP error mapping keeps working.
func classify(op string, sentinel, err error) error {
	kind, detail := kindOf(err)
	return domain.NewUpstreamError(op, kind, fmt.Errorf("%s: %w", detail, sentinel))
}

func kindOf(err error) (domain.FailureKind, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.FailureTimeout, "deadline exceeded"
	case errors.Is(err, context.Canceled):
		return domain.FailureTimeout, "canceled"
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		quota := apiErr.Type == codeInsufficientQuota || fmt.Sprint(apiErr.Code) == codeInsufficientQuota
		return kindForStatus(apiErr.HTTPStatusCode, quota),
			fmt.Sprintf("API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		quota := strings.Contains(string(reqErr.Body), codeInsufficientQuota)
		return kindForStatus(reqErr.HTTPStatusCode, quota),
			fmt.Sprintf("API error %d: %s", reqErr.HTTPStatusCode, detail)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return domain.FailureTimeout, netErr.Error()
		}
		return domain.FailureNetwork, netErr.Error()
	}
	return domain.FailureUnavailable, err.Error()
}

func kindForStatus(code int, quota bool) domain.FailureKind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return domain.FailureAuth
	case code == http.StatusTooManyRequests && quota:
		return domain.FailureQuota
	case code == http.StatusTooManyRequests:
		return domain.FailureRateLimited
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return domain.FailureTimeout
	case code >= http.StatusInternalServerError:
		return domain.FailureUnavailable
	default:
		return domain.FailureMalformed
	}
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

package chi

import (
	"github.com/spacetwo/spacetwo-chat/internal/domain/recommendation"
	ingestuc "github.com/spacetwo/spacetwo-chat/internal/usecase/ingest"
	"github.com/spacetwo/spacetwo-chat/internal/usecase/recommend"
)

// ErrorCode is the machine-readable error code in error responses.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest        ErrorCode = "bad_request"
	ErrorCodeInvalidRequest    ErrorCode = "invalid_request"
	ErrorCodeVectorDimMismatch ErrorCode = "vector_dim_mismatch"
	ErrorCodeBatchUpsertFailed ErrorCode = "batch_upsert_failed"
	ErrorCodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	ThreadID             string         `json:"thread_id"`
	Messages             []chatMessage  `json:"messages"`
	Geo                  *recommend.Geo `json:"geo,omitempty"`
	AvailabilityRequired bool           `json:"availability_required"`
}

type chatResponse struct {
	Reply           string                          `json:"reply"`
	Recommendations []recommendation.Recommendation `json:"recommendations"`
}

type ingestRequest struct {
	Items []ingestuc.Item `json:"items"`
}

type ingestResponse struct {
	Upserted int `json:"upserted"`
}

type searchResponse struct {
	Query           string                          `json:"query"`
	Recommendations []recommendation.Recommendation `json:"recommendations"`
}

type healthResponse struct {
	OK     bool              `json:"ok"`
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

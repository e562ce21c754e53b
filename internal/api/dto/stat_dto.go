package dto

import (
	"time"

	"github.com/spec-kit/catalog-service/internal/domain"
)

// StatResponse is one endpoint statistics record.
type StatResponse struct {
	ID           int64     `json:"id"`
	Endpoint     string    `json:"endpoint"`
	Method       string    `json:"method"`
	Count        uint64    `json:"count"`
	SuccessCount uint64    `json:"success_count"`
	ErrorCount   uint64    `json:"error_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewStatResponses maps records, keeping the registry order.
func NewStatResponses(stats []domain.EndpointStat) []StatResponse {
	out := make([]StatResponse, 0, len(stats))
	for _, s := range stats {
		out = append(out, StatResponse{
			ID:           s.ID,
			Endpoint:     s.Endpoint,
			Method:       s.Method,
			Count:        s.Count,
			SuccessCount: s.SuccessCount,
			ErrorCount:   s.ErrorCount,
			CreatedAt:    s.CreatedAt,
			UpdatedAt:    s.UpdatedAt,
		})
	}
	return out
}

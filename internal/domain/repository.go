package domain

import (
	"context"
	"time"
)

// USDAClient defines the interface for interacting with USDA FoodData Central API
type USDAClient interface {
	SearchFoods(ctx context.Context, query string, pageSize int) (*SearchResponse, error)
	GetFoodDetails(ctx context.Context, fdcID int64) (*FoodDetail, error)
}

// UpstreamObserver receives one call per outbound USDA request
type UpstreamObserver interface {
	ObserveUpstream(endpoint string, status int, duration time.Duration)
}

// ReportRecorder receives the outcome of every report build
type ReportRecorder interface {
	RecordReport(outcome string, allergens []string)
}

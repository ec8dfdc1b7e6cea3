package models

import "time"

// SystemMetrics is a point-in-time summary of the service counters.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	BookingsAccepted         uint64    `json:"bookingsAccepted"`
	BookingsRejected         uint64    `json:"bookingsRejected"`
	EmailsSent               uint64    `json:"emailsSent"`
	EmailsFailed             uint64    `json:"emailsFailed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

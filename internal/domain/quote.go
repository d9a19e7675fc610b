package domain

import "time"

// Quote is a reference price for a symbol, produced by an external quote
// source. Immutable once created; cached with a TTL at the store boundary.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Change    string    `json:"change"`
	Timestamp time.Time `json:"timestamp"`
}

// VenuePrice is a synthetic per-venue price derived from a reference quote
// during one detection cycle. It is never persisted on its own; only the
// Opportunity derived from a set of venue prices is.
type VenuePrice struct {
	Venue Venue   `json:"venue"`
	Price float64 `json:"price"`
}

// Latency is a round-trip latency sample for a venue endpoint. Informational
// only; it plays no part in the economic decision.
type Latency struct {
	Venue     Venue     `json:"venue"`
	LatencyMs float64   `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

package domain

// Venue is an enumerated trading destination against which a synthetic price
// is generated. The set of venues and their priority order come from
// configuration; these constants are the defaults.
type Venue string

const (
	VenueNYSE   Venue = "NYSE"
	VenueNASDAQ Venue = "NASDAQ"
	VenueBATS   Venue = "BATS"
)

// String returns the venue identifier.
func (v Venue) String() string { return string(v) }

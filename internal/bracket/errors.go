package bracket

import "errors"

// Scanner errors.
var (
	// ErrNoBracket is returned by First when no sign change exists in the
	// scanned domain.
	ErrNoBracket = errors.New("no sign change found in domain")

	// ErrCapacityExceeded is returned by Scan when the domain holds more
	// brackets than the configured capacity. The brackets found up to the
	// capacity are still returned.
	ErrCapacityExceeded = errors.New("bracket capacity exceeded")

	// ErrInvalidDomain is returned when the domain bounds are not finite or
	// lo is not below hi.
	ErrInvalidDomain = errors.New("invalid scan domain: bounds must be finite with lo < hi")

	// ErrInvalidStep is returned when the sampling step is not a positive
	// finite number or is too small for the domain.
	ErrInvalidStep = errors.New("invalid scan step: must be positive")

	// ErrInvalidCapacity is returned when the capacity is not positive.
	ErrInvalidCapacity = errors.New("invalid bracket capacity: must be positive")
)

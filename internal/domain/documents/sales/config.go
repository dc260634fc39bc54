package sales

import "stockyard/internal/core/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for this document type.
	// Sales orders are issued in bursts, so the cached range strategy is used.
	NumeratorStrategy = numerator.StrategyCached

	// NumberPrefix is the document number prefix.
	NumberPrefix = "SO"
)

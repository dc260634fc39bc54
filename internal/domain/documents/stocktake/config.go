package stocktake

import "stockyard/internal/core/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for this document type.
	NumeratorStrategy = numerator.StrategyStrict

	// NumberPrefix is the document number prefix.
	NumberPrefix = "ST"
)

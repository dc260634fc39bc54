package purchase

import "stockyard/internal/core/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for this document type.
	// Purchase orders are primary accounting documents, so numbering is strict.
	NumeratorStrategy = numerator.StrategyStrict

	// NumberPrefix is the document number prefix.
	NumberPrefix = "PO"
)

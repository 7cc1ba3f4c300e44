package usecase

// Thresholds carries every scoring constant the engines consult. It is built
// once from configuration and passed in at construction, so tests can inject
// deterministic values.
type Thresholds struct {
	// ProfileOverwriteConfidence guards scalar profile fields: a field set at
	// or above this confidence is only overwritten by an extraction that also
	// clears it.
	ProfileOverwriteConfidence float64

	// NameMatchThreshold is the minimum pairwise string similarity for two
	// names to count as matching.
	NameMatchThreshold float64

	// AutoApproveThreshold is the minimum mean check score for a validation
	// run to pass without manual review.
	AutoApproveThreshold float64

	// CriticalRiskThreshold is the aggregate fraud score at which the risk
	// level becomes critical.
	CriticalRiskThreshold float64

	// MaxValidationWarnings is how many warning checks a run tolerates before
	// requiring manual review.
	MaxValidationWarnings int

	// MinIDScanBytes flags identity scans smaller than this as suspicious.
	MinIDScanBytes int64

	// MaxFileBytes flags files larger than this as anomalous.
	MaxFileBytes int64

	// ExpiryWarningDays is the remaining-validity window that downgrades an
	// ID document from passed to warning.
	ExpiryWarningDays int
}

// DefaultThresholds returns the production defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ProfileOverwriteConfidence: 0.7,
		NameMatchThreshold:         0.85,
		AutoApproveThreshold:       0.9,
		CriticalRiskThreshold:      0.8,
		MaxValidationWarnings:      2,
		MinIDScanBytes:             50 * 1024,
		MaxFileBytes:               20 * 1024 * 1024,
		ExpiryWarningDays:          30,
	}
}

func (t Thresholds) normalize() Thresholds {
	out := t
	def := DefaultThresholds()

	if out.ProfileOverwriteConfidence <= 0 || out.ProfileOverwriteConfidence > 1 {
		out.ProfileOverwriteConfidence = def.ProfileOverwriteConfidence
	}
	if out.NameMatchThreshold <= 0 || out.NameMatchThreshold > 1 {
		out.NameMatchThreshold = def.NameMatchThreshold
	}
	if out.AutoApproveThreshold <= 0 || out.AutoApproveThreshold > 1 {
		out.AutoApproveThreshold = def.AutoApproveThreshold
	}
	if out.CriticalRiskThreshold <= 0.6 || out.CriticalRiskThreshold > 1 {
		out.CriticalRiskThreshold = def.CriticalRiskThreshold
	}
	if out.MaxValidationWarnings <= 0 {
		out.MaxValidationWarnings = def.MaxValidationWarnings
	}
	if out.MinIDScanBytes <= 0 {
		out.MinIDScanBytes = def.MinIDScanBytes
	}
	if out.MaxFileBytes <= 0 {
		out.MaxFileBytes = def.MaxFileBytes
	}
	if out.ExpiryWarningDays <= 0 {
		out.ExpiryWarningDays = def.ExpiryWarningDays
	}
	return out
}

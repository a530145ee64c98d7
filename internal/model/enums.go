package model

import "fmt"

// ComplexityLevel describes how difficult an invoice is to process.
type ComplexityLevel string

// Complexity levels, ordered from simplest to most complex.
const (
	ComplexitySimple      ComplexityLevel = "SIMPLE"
	ComplexityModerate    ComplexityLevel = "MODERATE"
	ComplexityComplex     ComplexityLevel = "COMPLEX"
	ComplexityVeryComplex ComplexityLevel = "VERY_COMPLEX"
)

var complexityRanks = map[ComplexityLevel]int{
	ComplexitySimple:      0,
	ComplexityModerate:    1,
	ComplexityComplex:     2,
	ComplexityVeryComplex: 3,
}

// Rank returns the ordinal position of the complexity level, or -1 if unknown.
func (c ComplexityLevel) Rank() int {
	if rank, ok := complexityRanks[c]; ok {
		return rank
	}
	return -1
}

// Valid reports whether the complexity level is one of the known values.
func (c ComplexityLevel) Valid() bool {
	_, ok := complexityRanks[c]
	return ok
}

// ExtractionQuality describes how cleanly invoice fields were extracted.
type ExtractionQuality string

// Extraction quality levels, ordered from worst to best.
const (
	QualityPoor      ExtractionQuality = "POOR"
	QualityFair      ExtractionQuality = "FAIR"
	QualityGood      ExtractionQuality = "GOOD"
	QualityExcellent ExtractionQuality = "EXCELLENT"
)

var qualityRanks = map[ExtractionQuality]int{
	QualityPoor:      0,
	QualityFair:      1,
	QualityGood:      2,
	QualityExcellent: 3,
}

// Rank returns the ordinal position of the quality level, or -1 if unknown.
func (q ExtractionQuality) Rank() int {
	if rank, ok := qualityRanks[q]; ok {
		return rank
	}
	return -1
}

// Valid reports whether the extraction quality is one of the known values.
func (q ExtractionQuality) Valid() bool {
	_, ok := qualityRanks[q]
	return ok
}

// RiskLevel is the overall risk classification for an invoice decision.
type RiskLevel string

// Risk levels, ordered from lowest to highest.
const (
	RiskVeryLow  RiskLevel = "VERY_LOW"
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
)

var riskRanks = map[RiskLevel]int{
	RiskVeryLow:  0,
	RiskLow:      1,
	RiskMedium:   2,
	RiskHigh:     3,
	RiskVeryHigh: 4,
}

// Rank returns the ordinal position of the risk level, or -1 if unknown.
func (r RiskLevel) Rank() int {
	if rank, ok := riskRanks[r]; ok {
		return rank
	}
	return -1
}

// AtLeast reports whether this risk level is at or above the given level.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r.Rank() >= other.Rank()
}

// AtMost reports whether this risk level is at or below the given level.
func (r RiskLevel) AtMost(other RiskLevel) bool {
	return r.Rank() <= other.Rank()
}

// IssueSeverity classifies validation issues found on an invoice.
type IssueSeverity string

// Issue severities.
const (
	SeverityInfo     IssueSeverity = "INFO"
	SeverityWarning  IssueSeverity = "WARNING"
	SeverityError    IssueSeverity = "ERROR"
	SeverityCritical IssueSeverity = "CRITICAL"
)

// ValidationIssue records a problem detected while validating invoice fields.
type ValidationIssue struct {
	Severity IssueSeverity `json:"severity"`
	Field    string        `json:"field"`
	Message  string        `json:"message"`
}

// Validate ensures the issue has a known severity and a message.
func (v *ValidationIssue) Validate() error {
	switch v.Severity {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityCritical:
	default:
		return fmt.Errorf("unknown issue severity: %q", v.Severity)
	}
	if v.Message == "" {
		return fmt.Errorf("validation issue requires a message")
	}
	return nil
}

package models

import "time"

// PredictionRequest is the validated domain form of an inbound request.
type PredictionRequest struct {
	Crop         CropType
	VarietyName  string // empty means auto-select
	LocationName string
	Latitude     float64
	Longitude    float64
	SowingDate   time.Time
	UseRealTime  bool
}

// SelectionReason explains which fallback tier chose an assumed variety.
type SelectionReason string

const (
	ReasonRegionalHighestYield SelectionReason = "regional_highest_yield"
	ReasonRegionalFallback     SelectionReason = "regional_fallback"
	ReasonGlobalDefault        SelectionReason = "global_default"
)

// SelectionMetadata carries the audit trail of an automatic variety choice.
// Present on a VarietySelection iff Assumed is true.
type SelectionMetadata struct {
	Region         string
	Reason         SelectionReason
	YieldPotential float64
	Alternatives   []string // at most 3
}

// VarietySelection is the outcome of variety resolution.
type VarietySelection struct {
	VarietyName string
	Assumed     bool
	Metadata    *SelectionMetadata
}

// ModelProvenance distinguishes trained artifacts from synthesized fallbacks.
type ModelProvenance string

const (
	ProvenanceTrained  ModelProvenance = "trained"
	ProvenanceFallback ModelProvenance = "fallback"
)

// FallbackTrail records every degradation decision taken for one request so a
// caller can judge how much to trust the number without re-deriving it.
type FallbackTrail struct {
	VarietyAssumed  bool
	VarietyReason   SelectionReason
	DataTier        DataTier
	DataQuality     float64
	ModelProvenance ModelProvenance
	ModelLocation   string
	ModelAlgorithm  string
}

// StageTiming captures elapsed time for a single pipeline stage.
type StageTiming struct {
	Stage   string
	Elapsed time.Duration
}

// PredictionResult is the final output of the orchestration pipeline.
type PredictionResult struct {
	PredictionID   string
	Crop           CropType
	Variety        VarietySelection
	YieldTonsPerHa float64
	LowerBound     float64
	UpperBound     float64
	Confidence     float64
	Trail          FallbackTrail
	FreshnessHours float64
	Adjustments    []string
	StageTimings   []StageTiming
	GeneratedAt    time.Time
}

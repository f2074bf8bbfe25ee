package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/agrisense/yield-engine/internal/models"
	"github.com/agrisense/yield-engine/internal/registry"
	"github.com/agrisense/yield-engine/internal/utils"
)

// PredictionService is the facade behaviour the handlers depend on.
type PredictionService interface {
	Predict(ctx context.Context, req models.PredictionRequest) (models.PredictionResult, error)
}

// RegistryInfo exposes registry observability for the models endpoint.
type RegistryInfo interface {
	Summary() registry.LoadSummary
	Locations() []string
}

// Handler maps HTTP requests onto the prediction service.
type Handler struct {
	logger   *slog.Logger
	service  PredictionService
	registry RegistryInfo
	validate *validator.Validate
}

// NewHandler constructs the API handler set.
func NewHandler(logger *slog.Logger, service PredictionService, reg RegistryInfo) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		service:  service,
		registry: reg,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the v1 endpoints onto the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/predictions", h.HandlePredict)
	r.Get("/models", h.HandleModels)
}

// predictionRequestDTO is the JSON request body. An omitted, null or empty
// variety_name all mean auto-select.
type predictionRequestDTO struct {
	CropType     string  `json:"crop_type" validate:"required"`
	VarietyName  *string `json:"variety_name"`
	LocationName string  `json:"location_name" validate:"required"`
	Latitude     float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude    float64 `json:"longitude" validate:"gte=-180,lte=180"`
	SowingDate   string  `json:"sowing_date" validate:"required"`
	UseRealTime  *bool   `json:"use_real_time_data"`
}

type varietySelectionDTO struct {
	Region         string   `json:"region"`
	Reason         string   `json:"reason"`
	YieldPotential float64  `json:"yield_potential"`
	Alternatives   []string `json:"alternatives"`
}

type predictionDTO struct {
	YieldTonsPerHectare float64              `json:"yield_tons_per_hectare"`
	LowerBound          float64              `json:"lower_bound"`
	UpperBound          float64              `json:"upper_bound"`
	ConfidenceScore     float64              `json:"confidence_score"`
	VarietyName         string               `json:"variety_name"`
	VarietyAssumed      bool                 `json:"variety_assumed"`
	DefaultSelection    *varietySelectionDTO `json:"default_variety_selection,omitempty"`
}

type modelDTO struct {
	LocationUsed string `json:"location_used"`
	Algorithm    string `json:"algorithm"`
	Provenance   string `json:"provenance"`
}

type dataSourcesDTO struct {
	Tier               string  `json:"tier"`
	QualityScore       float64 `json:"quality_score"`
	DataFreshnessHours float64 `json:"data_freshness_hours"`
}

type factorsDTO struct {
	EnvironmentalAdjustments []string `json:"environmental_adjustments"`
}

type predictionResponse struct {
	Success      bool           `json:"success"`
	PredictionID string         `json:"prediction_id"`
	Prediction   predictionDTO  `json:"prediction"`
	Model        modelDTO       `json:"model"`
	DataSources  dataSourcesDTO `json:"data_sources"`
	Factors      factorsDTO     `json:"factors"`
	GeneratedAt  time.Time      `json:"generated_at"`
}

// HandlePredict handles POST /v1/predictions.
func (h *Handler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	var dto predictionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, r, utils.InvalidInput("api.HandlePredict", "request body is not valid JSON"))
		return
	}
	if err := h.validate.Struct(dto); err != nil {
		writeError(w, r, utils.InvalidInput("api.HandlePredict", validationMessage(err)))
		return
	}

	req, err := toDomainRequest(dto)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.service.Predict(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(result))
}

// HandleModels handles GET /v1/models with the registry load summary.
func (h *Handler) HandleModels(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		writeError(w, r, utils.NewPredictionError(utils.KindInternalError, "api.HandleModels", "", nil))
		return
	}
	summary := h.registry.Summary()

	rejections := make(map[string]int)
	for reason, count := range summary.RejectionsByReason() {
		rejections[string(reason)] = count
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"registry": map[string]any{
			"artifacts_scanned":    summary.Scanned,
			"models_loaded":        summary.Loaded,
			"models_synthesized":   summary.Synthesized,
			"rejections_by_reason": rejections,
			"locations":            h.registry.Locations(),
		},
	})
}

func toDomainRequest(dto predictionRequestDTO) (models.PredictionRequest, error) {
	const op = "api.toDomainRequest"

	crop, err := models.ParseCropType(dto.CropType)
	if err != nil {
		return models.PredictionRequest{}, utils.InvalidInput(op, "crop_type must be one of Rice, Wheat, Maize")
	}

	sowingDate, err := utils.ParseSowingDate(dto.SowingDate)
	if err != nil {
		return models.PredictionRequest{}, utils.InvalidInput(op, "sowing_date must be an ISO date")
	}

	variety := ""
	if dto.VarietyName != nil {
		variety = *dto.VarietyName
	}
	useRealTime := true
	if dto.UseRealTime != nil {
		useRealTime = *dto.UseRealTime
	}

	return models.PredictionRequest{
		Crop:         crop,
		VarietyName:  variety,
		LocationName: dto.LocationName,
		Latitude:     dto.Latitude,
		Longitude:    dto.Longitude,
		SowingDate:   sowingDate,
		UseRealTime:  useRealTime,
	}, nil
}

func toResponse(result models.PredictionResult) predictionResponse {
	prediction := predictionDTO{
		YieldTonsPerHectare: result.YieldTonsPerHa,
		LowerBound:          result.LowerBound,
		UpperBound:          result.UpperBound,
		ConfidenceScore:     result.Confidence,
		VarietyName:         result.Variety.VarietyName,
		VarietyAssumed:      result.Variety.Assumed,
	}
	if result.Variety.Assumed && result.Variety.Metadata != nil {
		meta := result.Variety.Metadata
		alternatives := meta.Alternatives
		if alternatives == nil {
			alternatives = []string{}
		}
		prediction.DefaultSelection = &varietySelectionDTO{
			Region:         meta.Region,
			Reason:         string(meta.Reason),
			YieldPotential: meta.YieldPotential,
			Alternatives:   alternatives,
		}
	}

	adjustments := result.Adjustments
	if adjustments == nil {
		adjustments = []string{}
	}

	return predictionResponse{
		Success:      true,
		PredictionID: result.PredictionID,
		Prediction:   prediction,
		Model: modelDTO{
			LocationUsed: result.Trail.ModelLocation,
			Algorithm:    result.Trail.ModelAlgorithm,
			Provenance:   string(result.Trail.ModelProvenance),
		},
		DataSources: dataSourcesDTO{
			Tier:               string(result.Trail.DataTier),
			QualityScore:       result.Trail.DataQuality,
			DataFreshnessHours: result.FreshnessHours,
		},
		Factors:     factorsDTO{EnvironmentalAdjustments: adjustments},
		GeneratedAt: result.GeneratedAt,
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0]
		switch field.Tag() {
		case "required":
			return jsonFieldName(field.Field()) + " is required"
		case "gte", "lte":
			return jsonFieldName(field.Field()) + " is out of range"
		}
	}
	return "request validation failed"
}

func jsonFieldName(structField string) string {
	switch structField {
	case "CropType":
		return "crop_type"
	case "LocationName":
		return "location_name"
	case "Latitude":
		return "latitude"
	case "Longitude":
		return "longitude"
	case "SowingDate":
		return "sowing_date"
	default:
		return structField
	}
}

package models

import (
	"fmt"
	"strings"
)

// CropType enumerates the crops the service can predict yield for.
type CropType string

const (
	CropRice  CropType = "Rice"
	CropWheat CropType = "Wheat"
	CropMaize CropType = "Maize"
)

// ParseCropType normalises free-form input into a CropType.
func ParseCropType(value string) (CropType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "rice":
		return CropRice, nil
	case "wheat":
		return CropWheat, nil
	case "maize", "corn":
		return CropMaize, nil
	default:
		return "", fmt.Errorf("unknown crop type %q", value)
	}
}

// Valid reports whether the crop type is one of the supported values.
func (c CropType) Valid() bool {
	switch c {
	case CropRice, CropWheat, CropMaize:
		return true
	}
	return false
}

// Variety describes a cultivar and its agronomic parameters as stored in the catalog.
type Variety struct {
	Name             string
	Crop             CropType
	Region           string
	YieldPotential   float64 // tons per hectare under reference conditions
	MaturityDays     int
	TempToleranceC   float64
	WaterRequirement float64
}

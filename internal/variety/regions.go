package variety

import "strings"

// RegionAllNorthIndia is the sentinel region every unknown location maps to.
// Resolution never fails on an unmapped location name.
const RegionAllNorthIndia = "All North India"

// locationRegions is the precomputed, immutable location-to-region map. Keys
// are normalized location names.
var locationRegions = map[string]string{
	"bhopal":     "Madhya Pradesh",
	"indore":     "Madhya Pradesh",
	"gwalior":    "Madhya Pradesh",
	"jabalpur":   "Madhya Pradesh",
	"lucknow":    "Uttar Pradesh",
	"kanpur":     "Uttar Pradesh",
	"varanasi":   "Uttar Pradesh",
	"agra":       "Uttar Pradesh",
	"chandigarh": "Punjab",
	"ludhiana":   "Punjab",
	"amritsar":   "Punjab",
	"patiala":    "Punjab",
	"jaipur":     "Rajasthan",
	"jodhpur":    "Rajasthan",
	"udaipur":    "Rajasthan",
	"patna":      "Bihar",
	"gaya":       "Bihar",
	"karnal":     "Haryana",
	"hisar":      "Haryana",
	"gurugram":   "Haryana",
	"delhi":      "Delhi",
	"new delhi":  "Delhi",
}

// normalizeLocationName trims, strips non-alphanumerics (keeping single
// spaces) and lower-cases the input.
func normalizeLocationName(name string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		case r == ' ' || r == '-' || r == '_':
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// regionFor resolves a location name to its region, defaulting to the
// All North India sentinel.
func regionFor(locationName string) string {
	if region, ok := locationRegions[normalizeLocationName(locationName)]; ok {
		return region
	}
	return RegionAllNorthIndia
}

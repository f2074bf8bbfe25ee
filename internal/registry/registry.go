// Package registry loads persisted model artifacts at startup, validates
// their structure and runtime compatibility, and serves immutable handles to
// concurrent requests. When nothing loads it synthesizes fallback models so
// the registry is never empty.
package registry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadSummary aggregates the outcome of a registry load.
type LoadSummary struct {
	Scanned     int
	Loaded      int
	Synthesized int
	Rejections  []Rejection
}

// RejectionsByReason groups rejection counts for observability output.
func (s LoadSummary) RejectionsByReason() map[RejectionReason]int {
	counts := make(map[RejectionReason]int)
	for _, r := range s.Rejections {
		counts[r.Reason]++
	}
	return counts
}

// Registry groups loaded handles by (location, algorithm). Built once at
// startup and read-only thereafter.
type Registry struct {
	logger  *slog.Logger
	handles map[string]map[Algorithm]*Handle
	summary LoadSummary
}

// LoadAll enumerates the artifact directory and builds the registry. It
// never fails outright: unreadable directories and rejected artifacts are
// recorded in the summary, and an empty result synthesizes fallbacks.
func LoadAll(dir string, priors Priors, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	reg := &Registry{
		logger:  logger,
		handles: make(map[string]map[Algorithm]*Handle),
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("artifact directory unreadable, synthesizing fallback models",
			slog.String("dir", dir), slog.Any("error", err))
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		reg.summary.Scanned++

		name, err := parseArtifactName(entry.Name())
		if err != nil {
			reg.reject(entry.Name(), RejectUnknown, err)
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			reg.reject(entry.Name(), RejectUnknown, err)
			continue
		}
		handle, reason, err := buildHandle(name, data)
		if err != nil {
			reg.reject(entry.Name(), reason, err)
			continue
		}
		reg.insert(handle)
		reg.summary.Loaded++
	}

	if reg.summary.Loaded == 0 {
		for _, handle := range synthesizeFallbacks(priors) {
			reg.insert(handle)
			reg.summary.Synthesized++
		}
		logger.Warn("no artifacts loaded, registry running on synthesized fallbacks",
			slog.Int("scanned", reg.summary.Scanned),
			slog.Int("synthesized", reg.summary.Synthesized))
	} else {
		logger.Info("model registry loaded",
			slog.Int("scanned", reg.summary.Scanned),
			slog.Int("loaded", reg.summary.Loaded),
			slog.Int("rejected", len(reg.summary.Rejections)))
	}

	return reg
}

func (r *Registry) reject(file string, reason RejectionReason, err error) {
	if reason == "" {
		reason = RejectUnknown
	}
	r.summary.Rejections = append(r.summary.Rejections, Rejection{
		File:   file,
		Reason: reason,
		Detail: err.Error(),
	})
	r.logger.Warn("artifact rejected",
		slog.String("file", file),
		slog.String("reason", string(reason)),
		slog.Any("error", err))
}

func (r *Registry) insert(handle *Handle) {
	byAlg, ok := r.handles[handle.Location]
	if !ok {
		byAlg = make(map[Algorithm]*Handle)
		r.handles[handle.Location] = byAlg
	}
	byAlg[handle.Algorithm] = handle
}

// Summary returns the load outcome for observability endpoints.
func (r *Registry) Summary() LoadSummary {
	return r.summary
}

// regionalKey is the designated regional model every location can fall back
// to before "any available model".
const regionalKey = "all_north_india"

// Get selects a handle for the location: most specific substring match on
// the normalized name, then the regional model, then any available handle.
// Within a location, preferred algorithms win, then the fixed priority order.
func (r *Registry) Get(location string, preferred ...Algorithm) (*Handle, error) {
	key := normalizeLocation(location)

	if byAlg, ok := r.handles[key]; ok {
		if h := pickAlgorithm(byAlg, preferred); h != nil {
			return h, nil
		}
	}

	// Substring match: the longest stored key contained in the request
	// location (or containing it) is the most specific.
	if best := r.bestSubstringMatch(key); best != "" {
		if h := pickAlgorithm(r.handles[best], preferred); h != nil {
			return h, nil
		}
	}

	if byAlg, ok := r.handles[regionalKey]; ok {
		if h := pickAlgorithm(byAlg, preferred); h != nil {
			return h, nil
		}
	}

	// Any available model, in deterministic key order.
	keys := make([]string, 0, len(r.handles))
	for k := range r.handles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if h := pickAlgorithm(r.handles[k], preferred); h != nil {
			return h, nil
		}
	}

	return nil, fmt.Errorf("registry has no usable models")
}

func (r *Registry) bestSubstringMatch(key string) string {
	if key == "" {
		return ""
	}
	best := ""
	for stored := range r.handles {
		if stored == regionalKey {
			continue
		}
		if strings.Contains(key, stored) || strings.Contains(stored, key) {
			if len(stored) > len(best) {
				best = stored
			}
		}
	}
	return best
}

func pickAlgorithm(byAlg map[Algorithm]*Handle, preferred []Algorithm) *Handle {
	for _, alg := range preferred {
		if h, ok := byAlg[alg]; ok {
			return h
		}
	}
	for _, alg := range algorithmPriority {
		if h, ok := byAlg[alg]; ok {
			return h
		}
	}
	return nil
}

// Locations lists the normalized location keys currently served.
func (r *Registry) Locations() []string {
	keys := make([]string, 0, len(r.handles))
	for k := range r.handles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package pattern

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// coldStartCap keeps seeded confidence well below any statistical signal
const coldStartCap = 0.4

// generalCluster is the fallback cohort for unknown or missing clusters
const generalCluster = "general"

// Seed is a single cohort-derived pattern hint
type Seed struct {
	Type       string  `yaml:"type"`
	Confidence float64 `yaml:"confidence"`
}

// CohortSeeds maps a behavioral cluster ID to its seed patterns. Seeds
// stand in for statistics until a user has logged enough entries.
type CohortSeeds map[string][]Seed

// DefaultCohortSeeds returns the built-in cluster to seed mapping
func DefaultCohortSeeds() CohortSeeds {
	return CohortSeeds{
		"emotional_eater": {
			{Type: TypeMood, Confidence: 0.3},
		},
		"chaotic_eater": {
			{Type: TypeSkip, Confidence: 0.3},
		},
		"unstructured_eater": {
			{Type: TypeTime, Confidence: 0.3},
		},
		"mindless_eater": {
			{Type: TypeContext, Confidence: 0.3},
		},
		generalCluster: {
			{Type: TypeTime, Confidence: 0.25},
		},
	}
}

// LoadCohortSeeds reads a cluster seed mapping from a YAML file. The file
// must contain a "general" cluster since it is the fallback for unknown
// cluster IDs.
func LoadCohortSeeds(path string) (CohortSeeds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cohort seed file: %w", err)
	}

	var seeds CohortSeeds
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("failed to parse cohort seed file: %w", err)
	}

	if _, ok := seeds[generalCluster]; !ok {
		return nil, fmt.Errorf("cohort seed file is missing the %q cluster", generalCluster)
	}

	for cluster, clusterSeeds := range seeds {
		for _, s := range clusterSeeds {
			switch s.Type {
			case TypeTime, TypeMood, TypeContext, TypeSkip:
			default:
				return nil, fmt.Errorf("cluster %q has unknown pattern type %q", cluster, s.Type)
			}
		}
	}

	return seeds, nil
}

// coldStart returns seeded candidates for users with too little history.
// Unknown clusters fall back to the general seed.
func (d *Detector) coldStart(clusterID string) []Candidate {
	seeds, ok := d.seeds[clusterID]
	if clusterID == "" || !ok {
		clusterID = generalCluster
		seeds = d.seeds[generalCluster]
	}

	candidates := make([]Candidate, 0, len(seeds))
	for _, s := range seeds {
		confidence := s.Confidence
		if confidence > coldStartCap {
			confidence = coldStartCap
		}
		candidates = append(candidates, Candidate{
			Type:       s.Type,
			Confidence: confidence,
			Evidence: Evidence{
				"source":     "cold_start",
				"cluster_id": clusterID,
			},
		})
	}

	return candidates
}

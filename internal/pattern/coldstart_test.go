package pattern

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cohorts.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write seed file: %v", err)
	}
	return path
}

func TestLoadCohortSeeds(t *testing.T) {
	path := writeSeedFile(t, `
emotional_eater:
  - type: mood
    confidence: 0.35
general:
  - type: time
    confidence: 0.25
`)

	seeds, err := LoadCohortSeeds(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(seeds) != 2 {
		t.Errorf("Expected 2 clusters, got %d", len(seeds))
	}
	if len(seeds["emotional_eater"]) != 1 || seeds["emotional_eater"][0].Type != TypeMood {
		t.Errorf("Unexpected emotional_eater seeds: %+v", seeds["emotional_eater"])
	}
}

func TestLoadCohortSeedsMissingGeneral(t *testing.T) {
	path := writeSeedFile(t, `
chaotic_eater:
  - type: skip
    confidence: 0.3
`)

	if _, err := LoadCohortSeeds(path); err == nil {
		t.Error("Expected error for missing general cluster")
	}
}

func TestLoadCohortSeedsUnknownType(t *testing.T) {
	path := writeSeedFile(t, `
general:
  - type: astrology
    confidence: 0.9
`)

	if _, err := LoadCohortSeeds(path); err == nil {
		t.Error("Expected error for unknown pattern type")
	}
}

func TestDefaultCohortSeedsCoverFallback(t *testing.T) {
	seeds := DefaultCohortSeeds()

	if _, ok := seeds[generalCluster]; !ok {
		t.Fatal("Default seeds must include the general cluster")
	}

	for cluster, clusterSeeds := range seeds {
		for _, s := range clusterSeeds {
			if s.Confidence > coldStartCap {
				t.Errorf("Cluster %s seed exceeds cold start cap: %f", cluster, s.Confidence)
			}
		}
	}
}

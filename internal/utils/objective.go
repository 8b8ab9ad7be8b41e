package utils

import (
	"strings"

	"cahier/internal/models"
)

// objectiveMarkers are matched against accent-folded, lowercased lines
var objectiveMarkers = []string{"objectif", "objective", "الهدف", "هدف"}

// DeriveObjective returns the first line of content that mentions an
// objective marker, or models.ObjectiveUnset when none does
func DeriveObjective(content string) string {
	for _, line := range strings.Split(content, "\n") {
		folded := fold(line)
		for _, marker := range objectiveMarkers {
			if strings.Contains(folded, marker) {
				if trimmed := strings.TrimSpace(line); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return models.ObjectiveUnset
}

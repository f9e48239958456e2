package corpus

import "strings"

// conceptIndicators maps each taggable concept to the text markers that
// signal it. Matches are whole-word within padded text.
var conceptIndicators = []struct {
	concept    string
	indicators []string
}{
	{"symptoms", []string{"symptom", "sign", "manifestation", "presentation"}},
	{"treatment", []string{"treatment", "therapy", "medication", "management", "drug"}},
	{"causes", []string{"cause", "etiology", "reason", "risk factor"}},
	{"diagnosis", []string{"diagnosis", "test", "examination", "screening"}},
	{"prevention", []string{"prevention", "prevent", "avoid", "protection"}},
}

var structureMarkers = []string{"symptoms", "treatment", "causes", "diagnosis", "prevention"}

// ExtractConcepts tags the concept categories present in a chunk's text.
func ExtractConcepts(text string) []string {
	padded := " " + strings.ToLower(text) + " "

	var concepts []string
	for _, entry := range conceptIndicators {
		for _, indicator := range entry.indicators {
			if strings.Contains(padded, " "+indicator+" ") {
				concepts = append(concepts, entry.concept)
				break
			}
		}
	}
	return concepts
}

// HasStructured reports whether the text reads like organized clinical
// sections rather than free prose.
func HasStructured(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range structureMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

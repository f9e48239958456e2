package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/healthquery/medical-rag/internal/core/domain"
)

// FDADrugsParser converts an openFDA drug-label JSON export into chunks, one
// per label. Accepts both the raw API envelope ({"results": [...]}) and a
// bare array.
type FDADrugsParser struct{}

func NewFDADrugsParser() *FDADrugsParser {
	return &FDADrugsParser{}
}

func (p *FDADrugsParser) Source() domain.SourceDataset {
	return domain.SourceFDADrugs
}

type drugLabel struct {
	ID                      string      `json:"id"`
	Purpose                 []string    `json:"purpose"`
	ActiveIngredient        []string    `json:"active_ingredient"`
	InactiveIngredient      []string    `json:"inactive_ingredient"`
	IndicationsAndUsage     []string    `json:"indications_and_usage"`
	DosageAndAdministration []string    `json:"dosage_and_administration"`
	Warnings                []string    `json:"warnings"`
	OpenFDA                 drugOpenFDA `json:"openfda"`
}

type drugOpenFDA struct {
	BrandName        []string `json:"brand_name"`
	GenericName      []string `json:"generic_name"`
	Route            []string `json:"route"`
	ManufacturerName []string `json:"manufacturer_name"`
	SubstanceName    []string `json:"substance_name"`
}

func (p *FDADrugsParser) Parse(r io.Reader) ([]domain.Chunk, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read drug labels: %w", err)
	}

	var labels []drugLabel
	var envelope struct {
		Results []drugLabel `json:"results"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Results != nil {
		labels = envelope.Results
	} else if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("decode drug labels json: %w", err)
	}

	chunks := make([]domain.Chunk, 0, len(labels))
	for i, label := range labels {
		chunk, ok := p.labelChunk(label, i)
		if ok {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

func (p *FDADrugsParser) labelChunk(label drugLabel, index int) (domain.Chunk, bool) {
	content := drugContent(label)
	if content == "" {
		return domain.Chunk{}, false
	}

	brand := first(label.OpenFDA.BrandName)
	generic := first(label.OpenFDA.GenericName)

	title := brand
	if title == "" {
		title = generic
	}
	if title == "" {
		title = fmt.Sprintf("Drug Label %d", index+1)
	}

	id := fmt.Sprintf("fda_%s_%d", safeName(title), index+1)

	var synonyms []string
	if generic != "" && !strings.EqualFold(generic, title) {
		synonyms = []string{generic}
	}

	return domain.Chunk{
		ID:              id,
		TopicID:         "fda_" + safeName(title),
		Title:           title,
		Content:         content,
		SourceDataset:   domain.SourceFDADrugs,
		Synonyms:        synonyms,
		SearchTerms:     SearchTerms(title, synonyms, label.OpenFDA.SubstanceName),
		MedicalConcepts: ExtractConcepts(content),
		QualityScore:    drugQuality(label, content),
		HasStructured:   len(label.Warnings) > 0 || len(label.DosageAndAdministration) > 0,
		BrandName:       brand,
		GenericName:     generic,
	}, true
}

// drugContent assembles the labeled sections into one searchable text, most
// clinically useful sections first. Warnings are capped; label warnings run
// to pages.
func drugContent(label drugLabel) string {
	var parts []string
	addSection := func(name string, values []string) {
		joined := strings.TrimSpace(strings.Join(values, " "))
		if joined != "" {
			parts = append(parts, name+": "+joined)
		}
	}

	if brand := strings.Join(label.OpenFDA.BrandName, ", "); brand != "" {
		parts = append(parts, "Brand Name: "+brand)
	}
	addSection("Purpose", label.Purpose)
	addSection("Active Ingredients", label.ActiveIngredient)
	addSection("Indications", label.IndicationsAndUsage)
	addSection("Dosage", label.DosageAndAdministration)

	if warnings := strings.TrimSpace(strings.Join(label.Warnings, " ")); warnings != "" {
		parts = append(parts, "Warnings: "+truncateRunes(warnings, maxWarningsBytes))
	}

	if generic := strings.Join(label.OpenFDA.GenericName, ", "); generic != "" {
		parts = append(parts, "Generic Name: "+generic)
	}
	addSection("Route", label.OpenFDA.Route)
	addSection("Manufacturer", label.OpenFDA.ManufacturerName)

	if inactive := strings.TrimSpace(strings.Join(label.InactiveIngredient, " ")); inactive != "" && len(inactive) < 200 {
		parts = append(parts, "Inactive Ingredients: "+inactive)
	}

	return CleanText(strings.Join(parts, "\n"))
}

// maxWarningsBytes caps the warnings section; full label warnings run to
// pages and would drown the rest of the chunk.
const maxWarningsBytes = 500

// truncateRunes cuts s to at most max bytes without splitting a UTF-8
// sequence, appending an ellipsis when anything was dropped.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func drugQuality(label drugLabel, content string) float64 {
	score := 20.0
	if len(content) > 500 {
		score += 30
	} else if len(content) > 200 {
		score += 20
	}
	if len(label.Warnings) > 0 {
		score += 15
	}
	if len(label.DosageAndAdministration) > 0 {
		score += 15
	}
	if len(label.OpenFDA.BrandName) > 0 && len(label.OpenFDA.GenericName) > 0 {
		score += 10
	}
	return score
}

func safeName(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

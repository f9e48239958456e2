package usecase

import (
	"testing"

	"github.com/healthquery/medical-rag/internal/core/domain"
)

func scoredCandidate(id, topic string, source domain.SourceDataset, score float64) domain.Candidate {
	c := candidate(id, topic, "Title", "content", source, 0.3)
	c.CombinedScore = score
	return c
}

func TestEnforceDiversityTopicCap(t *testing.T) {
	w := DefaultWeights()
	in := []domain.Candidate{
		scoredCandidate("a", "asthma_01", domain.SourceMedlinePlus, 0.7),
		scoredCandidate("b", "asthma_01", domain.SourceMedlinePlus, 0.65),
		scoredCandidate("c", "asthma_01", domain.SourceMedlinePlus, 0.6),
		scoredCandidate("d", "copd_02", domain.SourceMedlinePlus, 0.55),
	}

	out := enforceDiversity(in, w)
	ids := resultIDs(out)
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "d" {
		t.Fatalf("expected [a b d], got %v", ids)
	}
}

func TestEnforceDiversityHighScoreException(t *testing.T) {
	w := DefaultWeights()
	in := []domain.Candidate{
		scoredCandidate("a", "asthma_01", domain.SourceMedlinePlus, 0.9),
		scoredCandidate("b", "asthma_01", domain.SourceMedlinePlus, 0.88),
		scoredCandidate("c", "asthma_01", domain.SourceMedlinePlus, 0.85),
	}

	// Third same-topic candidate clears the score bar and is admitted anyway.
	out := enforceDiversity(in, w)
	if len(out) != 3 {
		t.Fatalf("expected score exception to admit all 3, got %v", resultIDs(out))
	}
}

func TestEnforceDiversityRareSourceException(t *testing.T) {
	w := DefaultWeights()
	in := []domain.Candidate{
		scoredCandidate("a", "asthma_01", domain.SourceMedlinePlus, 0.7),
		scoredCandidate("b", "asthma_01", domain.SourceMedlinePlus, 0.65),
		// Over the topic cap, below the score bar, but first of its source.
		scoredCandidate("c", "asthma_01", domain.SourceFDADrugs, 0.5),
	}

	out := enforceDiversity(in, w)
	if len(out) != 3 {
		t.Fatalf("expected rare-source exception to admit all 3, got %v", resultIDs(out))
	}
}

func TestEnforceDiversityOrderPreserved(t *testing.T) {
	w := DefaultWeights()
	in := []domain.Candidate{
		scoredCandidate("a", "t1", domain.SourceMedlinePlus, 0.8),
		scoredCandidate("b", "t2", domain.SourceMedlinePlus, 0.7),
		scoredCandidate("c", "t3", domain.SourceMedlinePlus, 0.6),
	}
	out := enforceDiversity(in, w)
	ids := resultIDs(out)
	if ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Fatalf("order changed: %v", ids)
	}
}

func TestApplyQualityThresholdTrimsNoise(t *testing.T) {
	w := DefaultWeights()
	in := []domain.Candidate{
		scoredCandidate("a", "t1", domain.SourceMedlinePlus, 0.9),
		scoredCandidate("b", "t2", domain.SourceMedlinePlus, 0.7),
		scoredCandidate("c", "t3", domain.SourceMedlinePlus, 0.5),
		scoredCandidate("noise", "t4", domain.SourceMedlinePlus, 0.2),
	}
	out := applyQualityThreshold(in, 3, w)
	for _, id := range resultIDs(out) {
		if id == "noise" {
			t.Fatalf("low-score candidate survived threshold")
		}
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 results, got %v", resultIDs(out))
	}
}

func TestApplyQualityThresholdWeakCorpusFallback(t *testing.T) {
	w := DefaultWeights()
	in := []domain.Candidate{
		scoredCandidate("a", "t1", domain.SourceMedlinePlus, 0.25),
		scoredCandidate("b", "t2", domain.SourceMedlinePlus, 0.2),
		scoredCandidate("c", "t3", domain.SourceMedlinePlus, 0.15),
	}

	// Every score is under the floor; a weak corpus still answers with the
	// pre-threshold list truncated to the target.
	out := applyQualityThreshold(in, 2, w)
	ids := resultIDs(out)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("expected [a b], got %v", ids)
	}
}

func TestApplyQualityThresholdFloorIsAtLeastTwo(t *testing.T) {
	w := DefaultWeights()
	in := []domain.Candidate{
		scoredCandidate("a", "t1", domain.SourceMedlinePlus, 0.25),
		scoredCandidate("b", "t2", domain.SourceMedlinePlus, 0.2),
		scoredCandidate("c", "t3", domain.SourceMedlinePlus, 0.15),
	}
	out := applyQualityThreshold(in, 1, w)
	if len(out) != 2 {
		t.Fatalf("floor must be 2 even for target 1, got %v", resultIDs(out))
	}
}

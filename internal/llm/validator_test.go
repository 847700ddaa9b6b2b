package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/ipetrov/sourcerer/internal/model"
)

func enrichedSource(title, link string) model.EnrichedResult {
	e := model.EnrichedResult{AbstractText: "some abstract"}
	e.Title = title
	e.Link = link
	e.Origin = model.ProviderPubMed
	return e
}

func TestValidate_ScoresEverySource(t *testing.T) {
	prov := &stubProvider{reply: `{"sources": [
		{"uri": "https://x.test/a", "title": "A", "summary": "About A.", "reliability": 0.9, "reliabilityJustification": "peer reviewed"},
		{"uri": "https://x.test/b", "title": "B", "summary": "About B.", "reliability": 0.5, "reliabilityJustification": "preprint"}
	]}`}
	v := NewValidator(prov)

	sources := []model.EnrichedResult{
		enrichedSource("A", "https://x.test/a"),
		enrichedSource("B", "https://x.test/b"),
	}
	validated, err := v.Validate(context.Background(), "topic", sources)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if len(validated) != 2 {
		t.Fatalf("expected 2 validated sources, got %d", len(validated))
	}
	for _, s := range validated {
		if s.Status != model.StatusValid {
			t.Errorf("source %s: expected StatusValid, got %s", s.URI, s.Status)
		}
		if s.Content == "" || s.ReliabilityJustification == "" {
			t.Errorf("source %s missing summary or justification", s.URI)
		}
	}
	if validated[0].Reliability != 0.9 || validated[1].Reliability != 0.5 {
		t.Errorf("scores not carried through: %+v", validated)
	}
}

func TestValidate_MissingRecordIsHardFailure(t *testing.T) {
	prov := &stubProvider{reply: `{"sources": [
		{"uri": "https://x.test/a", "summary": "only one", "reliability": 0.9}
	]}`}
	v := NewValidator(prov)

	sources := []model.EnrichedResult{
		enrichedSource("A", "https://x.test/a"),
		enrichedSource("B", "https://x.test/b"),
	}
	if _, err := v.Validate(context.Background(), "topic", sources); err == nil {
		t.Fatal("expected error for a partial batch")
	}
}

func TestValidate_ClampsReliability(t *testing.T) {
	prov := &stubProvider{reply: `{"sources": [
		{"uri": "https://x.test/a", "summary": "s", "reliability": 1.7},
		{"uri": "https://x.test/b", "summary": "s", "reliability": -0.3}
	]}`}
	v := NewValidator(prov)

	validated, err := v.Validate(context.Background(), "topic", []model.EnrichedResult{
		enrichedSource("A", "https://x.test/a"),
		enrichedSource("B", "https://x.test/b"),
	})
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if validated[0].Reliability != 1 {
		t.Errorf("expected clamp to 1, got %f", validated[0].Reliability)
	}
	if validated[1].Reliability != 0 {
		t.Errorf("expected clamp to 0, got %f", validated[1].Reliability)
	}
}

func TestValidate_StripsMarkerFromSummary(t *testing.T) {
	prov := &stubProvider{reply: `{"sources": [
		{"uri": "https://x.test/a", "summary": "Real finding. ` + model.DOIConfirmedMarker + `", "reliability": 0.9}
	]}`}
	v := NewValidator(prov)

	validated, err := v.Validate(context.Background(), "topic", []model.EnrichedResult{
		enrichedSource("A", "https://x.test/a"),
	})
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if strings.Contains(validated[0].Content, model.DOIConfirmedMarker) {
		t.Errorf("marker must not reach the final summary: %q", validated[0].Content)
	}
	if validated[0].Content != "Real finding." {
		t.Errorf("unexpected summary: %q", validated[0].Content)
	}
}

func TestValidate_FallsBackToInputTitle(t *testing.T) {
	prov := &stubProvider{reply: `{"sources": [
		{"uri": "https://x.test/a", "summary": "s", "reliability": 0.5}
	]}`}
	v := NewValidator(prov)

	validated, err := v.Validate(context.Background(), "topic", []model.EnrichedResult{
		enrichedSource("Original Title", "https://x.test/a"),
	})
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if validated[0].Title != "Original Title" {
		t.Errorf("expected input title fallback, got %q", validated[0].Title)
	}
}

func TestValidate_EmptyInput(t *testing.T) {
	prov := &stubProvider{reply: `{"sources": []}`}
	v := NewValidator(prov)

	validated, err := v.Validate(context.Background(), "topic", nil)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if validated != nil {
		t.Errorf("expected nil for empty input")
	}
	if prov.lastReq.Prompt != "" {
		t.Errorf("empty input must not call the model")
	}
}

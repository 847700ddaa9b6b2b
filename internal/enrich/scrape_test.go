package enrich

import (
	"strings"
	"testing"
)

func TestScrapeDocument_LinkedData(t *testing.T) {
	body := `<html><head>
<script type="application/ld+json">
{"@type": "ScholarlyArticle", "headline": "JSON-LD Title", "description": "JSON-LD abstract."}
</script>
<meta name="citation_title" content="Meta Title">
</head></html>`

	doc := scrapeDocument(body)
	if doc.Title != "JSON-LD Title" {
		t.Errorf("JSON-LD must win over metas, got %q", doc.Title)
	}
	if doc.Abstract != "JSON-LD abstract." {
		t.Errorf("unexpected abstract %q", doc.Abstract)
	}
}

func TestScrapeDocument_LinkedDataArrayForms(t *testing.T) {
	// Array-wrapped block with an array @type.
	body := `<html><head><script type="application/ld+json">
[{"@type": ["Article", "NewsArticle"], "headline": "Wrapped", "description": "From array."}]
</script></head></html>`

	doc := scrapeDocument(body)
	if doc.Title != "Wrapped" || doc.Abstract != "From array." {
		t.Errorf("array-wrapped JSON-LD not handled: %+v", doc)
	}
}

func TestScrapeDocument_IgnoresNonScholarlyLinkedData(t *testing.T) {
	body := `<html><head>
<script type="application/ld+json">{"@type": "Organization", "headline": "Not an article"}</script>
<meta property="og:title" content="OG Title">
<meta property="og:description" content="OG description.">
</head></html>`

	doc := scrapeDocument(body)
	if doc.Title != "OG Title" || doc.Abstract != "OG description." {
		t.Errorf("expected meta fallback, got %+v", doc)
	}
}

func TestScrapeDocument_MetaPriority(t *testing.T) {
	body := `<html><head>
<meta name="citation_title" content="Citation Title">
<meta property="og:title" content="OG Title">
<meta name="citation_abstract" content="Citation abstract.">
<meta name="description" content="Plain description.">
</head></html>`

	doc := scrapeDocument(body)
	if doc.Title != "Citation Title" {
		t.Errorf("citation metas must win, got %q", doc.Title)
	}
	if doc.Abstract != "Citation abstract." {
		t.Errorf("citation metas must win, got %q", doc.Abstract)
	}
}

func TestScrapeDocument_DOMHeuristics(t *testing.T) {
	abstract := strings.Repeat("Cells were cultured and observed. ", 3)
	body := `<html><body>
<h1>  The Page Heading  </h1>
<div class="abstract-section">` + abstract + `</div>
</body></html>`

	doc := scrapeDocument(body)
	if doc.Title != "The Page Heading" {
		t.Errorf("h1 fallback failed: %q", doc.Title)
	}
	if !strings.HasPrefix(doc.Abstract, "Cells were cultured") {
		t.Errorf("abstract region not found: %q", doc.Abstract)
	}
}

func TestScrapeDocument_ParagraphFallback(t *testing.T) {
	long := strings.Repeat("A substantial finding about aging. ", 5)
	body := `<html><body>
<p>short</p>
<p>` + long + `</p>
</body></html>`

	doc := scrapeDocument(body)
	if !strings.HasPrefix(doc.Abstract, "A substantial finding") {
		t.Errorf("paragraph fallback failed: %q", doc.Abstract)
	}
}

func TestScrapeDocument_DOIConfirmation(t *testing.T) {
	with := `<html><head><meta name="citation_doi" content="10.1101/2026.03.03.333333"></head></html>`
	without := `<html><head><meta name="citation_title" content="T"></head></html>`

	if !scrapeDocument(with).DOIConfirmed {
		t.Error("citation_doi meta must confirm")
	}
	if scrapeDocument(without).DOIConfirmed {
		t.Error("no DOI meta must not confirm")
	}
}

func TestScrapeDocument_EmptyPage(t *testing.T) {
	doc := scrapeDocument("<html><body></body></html>")
	if doc.Title != "" || doc.Abstract != "" || doc.DOIConfirmed {
		t.Errorf("expected zero value for an empty page, got %+v", doc)
	}
}

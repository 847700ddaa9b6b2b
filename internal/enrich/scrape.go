package enrich

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// scrapedDocument holds whatever bibliographic content the page
// yielded
type scrapedDocument struct {
	Title        string
	Abstract     string
	DOIConfirmed bool
}

// scrapeDocument extracts title/abstract from a document page.
// Attempts in order: embedded JSON-LD tagged as a scholarly article,
// standard citation/OpenGraph/description metas, then a
// first-heading + abstract-region DOM heuristic. The DOI check runs
// independently of which path produced the text.
func scrapeDocument(body string) scrapedDocument {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return scrapedDocument{}
	}

	var out scrapedDocument

	if headline, description, ok := scrapeLinkedData(doc); ok {
		out.Title = headline
		out.Abstract = description
	}

	if out.Title == "" || out.Abstract == "" {
		title, abstract := scrapeMetaTags(doc)
		if out.Title == "" {
			out.Title = title
		}
		if out.Abstract == "" {
			out.Abstract = abstract
		}
	}

	if out.Title == "" {
		out.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if out.Abstract == "" {
		out.Abstract = scrapeAbstractRegion(doc)
	}

	if doi, ok := doc.Find(`meta[name="citation_doi"]`).Attr("content"); ok && strings.TrimSpace(doi) != "" {
		out.DOIConfirmed = true
	}

	return out
}

// linkedDataArticle is the slice of schema.org we care about
type linkedDataArticle struct {
	Type        any    `json:"@type"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
}

// scrapeLinkedData looks for a JSON-LD block describing a scholarly
// article
func scrapeLinkedData(doc *goquery.Document) (headline, description string, ok bool) {
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		raw := sel.Text()

		var article linkedDataArticle
		if err := json.Unmarshal([]byte(raw), &article); err != nil {
			// Some sites wrap JSON-LD in an array.
			var articles []linkedDataArticle
			if err := json.Unmarshal([]byte(raw), &articles); err != nil || len(articles) == 0 {
				return true
			}
			article = articles[0]
		}

		if !isScholarlyType(article.Type) {
			return true
		}
		if article.Headline == "" && article.Description == "" {
			return true
		}
		headline = strings.TrimSpace(article.Headline)
		description = strings.TrimSpace(article.Description)
		ok = true
		return false
	})
	return headline, description, ok
}

// isScholarlyType accepts "@type" as a string or array of strings
func isScholarlyType(t any) bool {
	match := func(s string) bool {
		return s == "ScholarlyArticle" || s == "Article" || s == "MedicalScholarlyArticle"
	}
	switch v := t.(type) {
	case string:
		return match(v)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && match(s) {
				return true
			}
		}
	}
	return false
}

// scrapeMetaTags falls back to citation, OpenGraph, and plain
// description metas, in that order of trust
func scrapeMetaTags(doc *goquery.Document) (title, abstract string) {
	metaContent := func(selector string) string {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			return strings.TrimSpace(content)
		}
		return ""
	}

	for _, sel := range []string{`meta[name="citation_title"]`, `meta[property="og:title"]`} {
		if title = metaContent(sel); title != "" {
			break
		}
	}
	for _, sel := range []string{
		`meta[name="citation_abstract"]`,
		`meta[property="og:description"]`,
		`meta[name="description"]`,
	} {
		if abstract = metaContent(sel); abstract != "" {
			break
		}
	}
	return title, abstract
}

// scrapeAbstractRegion hunts for an abstract-like DOM region as the
// last resort
func scrapeAbstractRegion(doc *goquery.Document) string {
	for _, selector := range []string{
		"#abstract", ".abstract", `[class*="abstract"]`, `[id*="abstract"]`,
	} {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if len(text) > 50 {
			return collapseWhitespace(text)
		}
	}
	// Give up on regions; take the first substantial paragraph.
	var fallback string
	doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if len(text) > 120 {
			fallback = collapseWhitespace(text)
			return false
		}
		return true
	})
	return fallback
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

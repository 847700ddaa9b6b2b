package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ipetrov/sourcerer/internal/model"
)

// genAgeSearchBase is the curated longevity-gene database's
// search-by-suggestion endpoint. Declared as a var so tests can
// substitute an httptest server.
var genAgeSearchBase = "https://open-genes.com/api/gene/search"

// GenAgeAdapter queries the curated gene/longevity database and maps
// its nested experiment records (organism, lifespan effect,
// intervention) into readable snippets.
type GenAgeAdapter struct {
	Client     *http.Client
	UserAgent  string
	MaxResults int
}

// Name returns the provider tag
func (a *GenAgeAdapter) Name() model.Provider { return model.ProviderGenAge }

type genAgeReply struct {
	Items []genAgeGene `json:"items"`
}

type genAgeGene struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	Researches struct {
		IncreaseLifespan []genAgeExperiment `json:"increaseLifespan"`
	} `json:"researches"`
}

type genAgeExperiment struct {
	ModelOrganism             string  `json:"modelOrganism"`
	InterventionResult        string  `json:"interventionResultForLifespan"`
	LifespanMeanChangePercent float64 `json:"lifespanMeanChangePercent"`
	InterventionWay           string  `json:"interventionWay"`
}

// Search queries the database by suggestion
func (a *GenAgeAdapter) Search(ctx context.Context, topic string) ([]model.RawResult, error) {
	max := a.MaxResults
	if max <= 0 {
		max = 5
	}

	reqURL := fmt.Sprintf("%s?bySuggestions=%s&pageSize=%d",
		genAgeSearchBase, url.QueryEscape(topic), max)

	var reply genAgeReply
	if err := getJSON(ctx, a.Client, reqURL, a.UserAgent, &reply); err != nil {
		return nil, fmt.Errorf("genage search: %w", err)
	}

	var results []model.RawResult
	for _, gene := range reply.Items {
		if len(results) >= max {
			break
		}
		if gene.Symbol == "" {
			continue
		}
		results = append(results, model.RawResult{
			Title:   fmt.Sprintf("%s (%s) longevity gene record", gene.Symbol, gene.Name),
			Link:    "https://open-genes.com/genes/" + gene.Symbol,
			Snippet: genAgeSnippet(gene),
			Origin:  model.ProviderGenAge,
		})
	}
	return results, nil
}

// genAgeSnippet flattens the nested experiment records
func genAgeSnippet(gene genAgeGene) string {
	experiments := gene.Researches.IncreaseLifespan
	if len(experiments) == 0 {
		return fmt.Sprintf("Curated longevity association for %s; no lifespan experiments recorded.", gene.Symbol)
	}

	var parts []string
	for i, exp := range experiments {
		if i >= 3 {
			parts = append(parts, fmt.Sprintf("and %d more experiments", len(experiments)-3))
			break
		}
		line := exp.ModelOrganism
		if exp.InterventionResult != "" {
			line += ": " + exp.InterventionResult
		}
		if exp.LifespanMeanChangePercent != 0 {
			line += fmt.Sprintf(" (mean lifespan %+.1f%%)", exp.LifespanMeanChangePercent)
		}
		if exp.InterventionWay != "" {
			line += " via " + exp.InterventionWay
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, "; ") + "."
}

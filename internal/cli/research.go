package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ipetrov/sourcerer/internal/model"
	"github.com/ipetrov/sourcerer/internal/pipeline"
)

var (
	providerNames []string
	threshold     float64
	maxSources    int
	runTimeout    time.Duration
	httpTimeout   time.Duration
	userAgent     string
	noCache       bool
	insecureTLS   bool
	llmProvider   string
	llmModel      string
	llmKey        string
	outJSON       string
)

// researchCmd represents the research command
var researchCmd = &cobra.Command{
	Use:   "research <topic>",
	Short: "Discover and validate grounding sources for a topic",
	Long: `Research fans out to every enabled source provider, deduplicates
and classifies the results, excavates aggregator pages for buried
primary sources, enriches candidates with real abstracts, and runs
the AI validator and quality gate.

The output is a reliability-sorted source list bounded by the
configured context budget.

Example:
  sourcerer research "senolytics"
  sourcerer research "rapamycin longevity" --providers pubmed,biorxiv --json sources.json
  sourcerer research "NAD+ precursors" --threshold 0.5 --max-sources 20`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	rootCmd.AddCommand(researchCmd)

	researchCmd.Flags().StringSliceVar(&providerNames, "providers", nil, "comma-separated providers (default: all)")
	researchCmd.Flags().Float64Var(&threshold, "threshold", 0.2, "minimum reliability to keep a source")
	researchCmd.Flags().IntVar(&maxSources, "max-sources", 60, "maximum sources in the final list")
	researchCmd.Flags().DurationVar(&runTimeout, "timeout", 5*time.Minute, "overall run timeout")
	researchCmd.Flags().DurationVar(&httpTimeout, "http-timeout", 20*time.Second, "per-request HTTP timeout")
	researchCmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent override")
	researchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the fetched-body cache")
	researchCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification")
	researchCmd.Flags().StringVar(&llmProvider, "llm-provider", "gemini", "LLM provider (gemini, openai)")
	researchCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	researchCmd.Flags().StringVar(&llmKey, "llm-key", "", "LLM API key (default: GEMINI_API_KEY / OPENAI_API_KEY)")
	researchCmd.Flags().StringVar(&outJSON, "json", "", "write the final source list to this JSON path")
}

func runResearch(cmd *cobra.Command, args []string) error {
	topic := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg := model.DefaultConfig()
	cfg.HTTP.Timeout = httpTimeout
	cfg.HTTP.InsecureTLS = insecureTLS
	if userAgent != "" {
		cfg.HTTP.UserAgent = userAgent
	}
	cfg.Cache.Enabled = !noCache
	cfg.Gate.ReliabilityThreshold = threshold
	cfg.Gate.MaxSources = maxSources
	cfg.LLM.Provider = llmProvider
	cfg.LLM.Model = llmModel
	cfg.LLM.APIKey = llmKey

	var enabled []model.Provider
	for _, name := range providerNames {
		enabled = append(enabled, model.Provider(name))
	}

	obs := model.NopObserver()
	if verbose {
		obs = model.NewWriterObserver(os.Stderr)
	}

	p, err := pipeline.New(ctx, cfg, obs)
	if err != nil {
		return err
	}

	sources, err := p.Run(ctx, topic, enabled)
	if err != nil {
		return err
	}

	renderSources(topic, sources)

	if outJSON != "" {
		data, err := json.MarshalIndent(sources, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal sources: %w", err)
		}
		if err := os.WriteFile(outJSON, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outJSON, err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}

	return nil
}

// renderSources prints the gated list as a compact table
func renderSources(topic string, sources []model.GroundingSource) {
	fmt.Printf("Grounding sources for %q (%d):\n\n", topic, len(sources))
	for i, s := range sources {
		fmt.Printf("%2d. [%.2f] %s\n", i+1, s.Reliability, s.Title)
		fmt.Printf("    %s (%s)\n", s.URI, s.Origin)
		if s.Content != "" {
			fmt.Printf("    %s\n", s.Content)
		}
		fmt.Println()
	}
}

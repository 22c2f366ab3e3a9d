package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/threadress/internal/domain"
	"github.com/kailas-cloud/threadress/internal/domain/hit"
	searchuc "github.com/kailas-cloud/threadress/internal/usecase/search"
)

var (
	searchImage string
	searchK     int
	searchSpace string
	searchMulti bool
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a query through the search pipeline",
	Long: `Run a text and/or image query through understanding, retrieval and
re-ranking and print the ranked hits with their signals.

Examples:
  threadctl search "elegant black dress for a wedding"
  threadctl search --image https://cdn.example.com/look.jpg -k 5
  threadctl search "sexy party dres" --multi --json`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	f := searchCmd.Flags()
	f.StringVarP(&searchImage, "image", "i", "", "image URL to search by")
	f.IntVarP(&searchK, "top-k", "k", 0, "number of hits (default from config)")
	f.StringVar(&searchSpace, "space", string(domain.SpaceCombined), "vector space: text, image, combined")
	f.BoolVar(&searchMulti, "multi", false, "fan out over query rewrites")
	f.BoolVar(&searchJSON, "json", false, "print the raw result as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	q := searchuc.Query{
		Text:     strings.Join(args, " "),
		ImageRef: searchImage,
		K:        searchK,
		Space:    domain.Space(strings.ToLower(searchSpace)),
	}

	run := a.Search.Search
	if searchMulti {
		run = a.Search.MultiQuerySearch
	}
	res, err := run(cmd.Context(), q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printResult(out, res)
	return nil
}

func printResult(w io.Writer, res searchuc.Result) {
	if res.EnhancedQuery != "" {
		fmt.Fprintf(w, "Enhanced query: %s\n", res.EnhancedQuery)
	}
	if res.StyleContext != nil {
		fmt.Fprintf(w, "Vibe: %s\n", res.StyleContext.Vibe)
	}
	if v := res.VisualAnalysis; v != nil {
		fmt.Fprintf(w, "Visual: %s / %s / %s %v\n", v.Style, v.Occasion, v.Mood, v.DominantColors)
	}
	for _, r := range res.Rewrites {
		fmt.Fprintf(w, "Rewrite: %s\n", r)
	}

	if len(res.Hits) == 0 {
		fmt.Fprintln(w, "\nNo results.")
		return
	}
	fmt.Fprintf(w, "\n%d results:\n", len(res.Hits))
	for i, h := range res.Hits {
		fmt.Fprintf(w, "%2d. %.4f (base %.4f)  %s  [%s]\n", i+1, h.FinalScore, h.BaseScore, h.Item.Title, h.Store)
		fmt.Fprintf(w, "    id=%s price=%s %s\n", h.Item.ID, formatPrice(h), formatSignals(h.Signals))
	}
}

func formatPrice(h hit.Scored) string {
	if h.Item.Price <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.2f %s", h.Item.Price, h.Item.Currency)
}

// formatSignals prints non-zero signals in name order.
func formatSignals(signals map[string]float64) string {
	names := make([]string, 0, len(signals))
	for name, v := range signals {
		if v != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%+.3f", name, signals[name])
	}
	return strings.Join(parts, " ")
}

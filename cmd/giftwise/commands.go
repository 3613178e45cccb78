package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/giftwise/internal/api"
	"github.com/kalambet/giftwise/internal/config"
	"github.com/kalambet/giftwise/internal/document"
	"github.com/kalambet/giftwise/internal/gifts"
	"github.com/kalambet/giftwise/internal/pipeline"
	"github.com/kalambet/giftwise/internal/storage"
)

var errEmptyText = errors.New("a description is required, pass it as arguments or with --file")

// descriptionFrom joins args, or reads --file when set.
func descriptionFrom(cmd *cobra.Command, args []string) (string, error) {
	file, _ := cmd.Flags().GetString("file")
	if file != "" {
		if len(args) > 0 {
			return "", fmt.Errorf("pass either a description or --file, not both")
		}
		text, err := document.ReadFile(file)
		if err != nil {
			return "", err
		}
		return text, nil
	}
	return strings.Join(args, " "), nil
}

// --- recommend ---

var recommendCmd = &cobra.Command{
	Use:   "recommend [description]",
	Short: "Suggest gifts for a described recipient",
	Long: `Extract a recipient profile from a plain-English description and suggest gifts.

Examples:
  giftwise recommend "My 25-year-old sister loves painting and enjoys traveling"
  giftwise recommend --assume-interest "board games"
  giftwise recommend --file ./notes.pdf --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := descriptionFrom(cmd, args)
		if err != nil {
			return err
		}
		assume, _ := cmd.Flags().GetBool("assume-interest")
		asJSON, _ := cmd.Flags().GetBool("json")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return recommend(cmd.Context(), client, stdout, text, assume, asJSON)
	},
}

func init() {
	recommendCmd.Flags().String("file", "", "read the description from a text, HTML or PDF file")
	recommendCmd.Flags().Bool("assume-interest", false, "treat the whole text as the interest when none is found")
	recommendCmd.Flags().Bool("json", false, "print the raw JSON result")
}

func recommend(ctx context.Context, client *apiClient, out io.Writer, text string, assume, asJSON bool) error {
	if strings.TrimSpace(text) == "" {
		return errEmptyText
	}
	res, err := fetchRecommendation(ctx, client, text, assume)
	if err != nil {
		return err
	}
	if asJSON {
		return writeIndentedJSON(out, res)
	}
	writeRecommendation(out, res)
	return nil
}

func fetchRecommendation(ctx context.Context, client *apiClient, text string, assume bool) (pipeline.Result, error) {
	resp, err := client.post(ctx, "/v1/recommend", api.RecommendRequest{Text: text, AssumeInterest: assume})
	if err != nil {
		return pipeline.Result{}, err
	}
	var res pipeline.Result
	if err := decodeJSON(resp, &res); err != nil {
		return pipeline.Result{}, err
	}
	return res, nil
}

func writeRecommendation(out io.Writer, res pipeline.Result) {
	if res.AssumedInterest && len(res.Profile.Interests) > 0 {
		fmt.Fprintf(out, "No specific interests found, assuming %q is the interest.\n\n", res.Profile.Interests[0].Phrase)
	}
	fmt.Fprintln(out, gifts.Format(res.Profile, res.Recommendations))
}

func writeIndentedJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile [description]",
	Short: "Extract a recipient profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := descriptionFrom(cmd, args)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return errEmptyText
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/v1/profile", api.RecommendRequest{Text: text})
		if err != nil {
			return err
		}
		var body api.ProfileResponse
		if err := decodeJSON(resp, &body); err != nil {
			return err
		}
		return writeIndentedJSON(stdout, body.Profile)
	},
}

func init() {
	profileCmd.Flags().String("file", "", "read the description from a text, HTML or PDF file")
}

// --- shell ---

const minShellInput = 3

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive gift finder",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runShell(cmd.Context(), client, os.Stdin, stdout)
	},
}

// runShell reads one description per line until "quit" or EOF. Single
// words are treated as interests, so "games" on its own still yields gifts.
func runShell(ctx context.Context, client *apiClient, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, colorize(colorBold, "giftwise"))
	fmt.Fprintln(out, "Example: '25-year-old sister who loves painting and traveling'")
	fmt.Fprintln(out, "Or simply enter an interest like 'gaming' or 'sports'.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nWho are you shopping for? ('quit' to exit): ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(text, "quit") {
			return nil
		}
		if len([]rune(text)) < minShellInput {
			printWarning("Please provide more details or a valid interest.")
			continue
		}

		res, err := fetchRecommendation(ctx, client, text, true)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			printError("%v", err)
			printHint("Please try again with different wording.")
			continue
		}
		fmt.Fprintln(out)
		writeRecommendation(out, res)
	}
}

// --- categories ---

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List interest categories and their gifts",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return listCategories(cmd.Context(), client, stdout)
	},
}

func listCategories(ctx context.Context, client *apiClient, out io.Writer) error {
	resp, err := client.get(ctx, "/v1/categories")
	if err != nil {
		return err
	}
	var body api.CategoriesResponse
	if err := decodeJSON(resp, &body); err != nil {
		return err
	}
	for _, c := range body.Categories {
		giftList := body.Rules[c]
		if len(giftList) == 0 {
			fmt.Fprintf(out, "%s: %s\n", colorize(colorBold, c), "(no gifts)")
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", colorize(colorBold, c), strings.Join(giftList, ", "))
	}
	return nil
}

// --- cache ---

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or purge the classification cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cached classification counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		st, err := cacheStats(cmd.Context(), client)
		if err != nil {
			return err
		}
		printStatus("Classifications", "%d", st.Classifications)
		printStatus("Sentiments", "%d", st.Sentiments)
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every cached classification",
	Long: `Delete every cached classification.

Run this after switching ollama.model: cached answers are keyed by phrase and
labels only, so old answers would otherwise keep being served.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This will delete all cached classifications. Use --confirm to proceed.")
			return nil
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		removed, err := purgeCache(cmd.Context(), client)
		if err != nil {
			return err
		}
		printSuccess("Removed %d classifications and %d sentiments", removed.Classifications, removed.Sentiments)
		return nil
	},
}

func init() {
	cachePurgeCmd.Flags().Bool("confirm", false, "confirm cache purge")
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
}

func cacheStats(ctx context.Context, client *apiClient) (storage.CacheStats, error) {
	resp, err := client.get(ctx, "/v1/cache/stats")
	if err != nil {
		return storage.CacheStats{}, err
	}
	var st storage.CacheStats
	if err := decodeJSON(resp, &st); err != nil {
		if isServerError(err, http.StatusNotFound) {
			return storage.CacheStats{}, fmt.Errorf("classification cache is disabled (classify.cache_enabled=false)")
		}
		return storage.CacheStats{}, err
	}
	return st, nil
}

func purgeCache(ctx context.Context, client *apiClient) (storage.CacheStats, error) {
	resp, err := client.delete(ctx, "/v1/cache")
	if err != nil {
		return storage.CacheStats{}, err
	}
	var body struct {
		Removed storage.CacheStats `json:"removed"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		if isServerError(err, http.StatusNotFound) {
			return storage.CacheStats{}, fmt.Errorf("classification cache is disabled (classify.cache_enabled=false)")
		}
		return storage.CacheStats{}, err
	}
	return body.Removed, nil
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(stdout, "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) != 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		keys := config.ValidKeys()
		sort.Strings(keys)
		return keys, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

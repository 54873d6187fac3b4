package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lunalabs/luna/internal/auth"
	"github.com/lunalabs/luna/internal/dreams"
	"github.com/lunalabs/luna/internal/insights"
	"github.com/lunalabs/luna/internal/session"
	"github.com/lunalabs/luna/internal/users"
	"github.com/lunalabs/luna/pkg/client"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	apiURL   string
	stateDir string
	useMock  bool
	cfgFile  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lunactl",
	Short: "Luna dream journal CLI",
	Long: `lunactl is the command-line interface for Luna.

It signs in to a Luna API, interprets dreams, keeps a local dream
journal, and computes insights over it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".luna"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if apiURL == "" {
			apiURL = viper.GetString("api_url")
		}
		if apiURL == "" {
			apiURL = "http://localhost:8080"
		}
		if stateDir == "" {
			stateDir = viper.GetString("state_dir")
		}
		if stateDir == "" {
			home, _ := os.UserHomeDir()
			stateDir = filepath.Join(home, ".luna")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.luna/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Luna API base URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "directory for session and journal state (default ~/.luna)")
	rootCmd.PersistentFlags().BoolVar(&useMock, "mock", false, "simulate the identity service locally instead of calling the API")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(interpretCmd)
	rootCmd.AddCommand(dreamsCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(versionCmd)
}

// buildAuth wires the auth service: a file-backed session plus either the
// real API or the local simulation.
func buildAuth() (*auth.Service, error) {
	store, err := session.NewFileStore(stateDir)
	if err != nil {
		return nil, err
	}
	logger := zap.NewNop()

	var backend auth.IdentityBackend
	if useMock {
		dir := users.NewDirectory()
		if err := auth.SeedDemoUsers(dir); err != nil {
			return nil, err
		}
		backend = auth.NewMockBackend(dir, logger)
	} else {
		backend = auth.NewHTTPBackend(client.New(apiURL, client.WithTimeout(15*time.Second)))
	}
	return auth.NewService(backend, store, logger), nil
}

// apiClient builds an SDK client for the configured API. When a session is
// persisted, the access token rides along so guarded endpoints authenticate.
func apiClient() (*client.Client, error) {
	store, err := session.NewFileStore(stateDir)
	if err != nil {
		return nil, err
	}
	opts := []client.Option{client.WithTimeout(15 * time.Second)}
	if token, ok := store.Get(session.KeyAccessToken); ok {
		opts = append(opts, client.WithAccessToken(token))
	}
	return client.New(apiURL, opts...), nil
}

func buildJournal(premium bool) (*dreams.Journal, error) {
	store, err := dreams.NewFileJournalStore(filepath.Join(stateDir, "dreams.json"))
	if err != nil {
		return nil, err
	}
	limit := dreams.FreeLimit
	if premium {
		limit = 0
	}
	return dreams.NewJournal(limit, store)
}

// ── register ─────────────────────────────────────────────────────────────────

var registerCmd = &cobra.Command{
	Use:   "register <email> <first-name> <last-name>",
	Short: "Create a Luna account and sign in",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return err
		}

		svc, err := buildAuth()
		if err != nil {
			return err
		}
		u, err := svc.Register(context.Background(), auth.Registration{
			Email:           args[0],
			Password:        password,
			ConfirmPassword: confirm,
			FirstName:       args[1],
			LastName:        args[2],
		})
		if err != nil {
			return err
		}
		fmt.Printf("Welcome to Luna, %s!\n", u.FirstName)
		return nil
	},
}

// ── login / logout / whoami ──────────────────────────────────────────────────

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in to Luna",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}
		svc, err := buildAuth()
		if err != nil {
			return err
		}
		u, err := svc.Login(context.Background(), args[0], password)
		if err != nil {
			return err
		}
		fmt.Printf("Signed in as %s %s <%s>\n", u.FirstName, u.LastName, u.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the local session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildAuth()
		if err != nil {
			return err
		}
		if err := svc.Logout(context.Background()); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	},
}

var whoamiJSON bool

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildAuth()
		if err != nil {
			return err
		}
		u, err := svc.CurrentUser()
		if err != nil {
			return err
		}
		if whoamiJSON {
			return printJSON(u)
		}
		plan := string(u.Subscription.Plan)
		fmt.Printf("%s %s <%s> (%s plan, %d dreams)\n",
			u.FirstName, u.LastName, u.Email, plan, u.Stats.TotalDreams)
		return nil
	},
}

func init() {
	whoamiCmd.Flags().BoolVar(&whoamiJSON, "json", false, "print the full user record as JSON")
}

// ── interpret ────────────────────────────────────────────────────────────────

var interpretSave bool

var interpretCmd = &cobra.Command{
	Use:   "interpret <dream text>",
	Short: "Interpret a dream",
	Long: `Interpret sends the dream to the Luna API. With --mock, or when the
API is unreachable, a local keyword analysis answers instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dreamText := joinArgs(args)
		ctx := context.Background()

		var interpreter dreams.Interpreter = dreams.CannedInterpreter{}
		if !useMock {
			api, err := apiClient()
			if err != nil {
				return err
			}
			interpreter = dreams.NewAPIInterpreter(api)
		}

		interpretation, err := interpreter.Interpret(ctx, dreamText)
		if err != nil {
			// The dream realm being down should not block a reading.
			interpretation, _ = dreams.CannedInterpreter{}.Interpret(ctx, dreamText)
		}
		fmt.Println(interpretation)

		if !interpretSave {
			return nil
		}
		svc, err := buildAuth()
		if err != nil {
			return err
		}
		u, err := svc.CurrentUser()
		if err != nil {
			return err
		}
		journal, err := buildJournal(u.Premium())
		if err != nil {
			return err
		}
		analysis := dreams.Analyze(dreamText)
		clarity := analysis.Clarity
		if err := journal.Add(dreams.Record{
			DreamText:      dreamText,
			Interpretation: interpretation,
			Tags:           analysis.Tags,
			Sentiment:      analysis.Sentiment,
			Mood:           analysis.Mood,
			Clarity:        &clarity,
			Themes:         analysis.Themes,
			Symbols:        analysis.Symbols,
		}); err != nil {
			return err
		}
		fmt.Printf("Saved to your journal (%d dreams).\n", journal.Len())
		return nil
	},
}

func init() {
	interpretCmd.Flags().BoolVar(&interpretSave, "save", false, "save the dream and interpretation to your journal")
}

// ── dreams ───────────────────────────────────────────────────────────────────

var dreamsCmd = &cobra.Command{
	Use:   "dreams",
	Short: "List the dreams in your journal, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildAuth()
		if err != nil {
			return err
		}
		u, err := svc.CurrentUser()
		if err != nil {
			return err
		}
		journal, err := buildJournal(u.Premium())
		if err != nil {
			return err
		}

		records := journal.All()
		if len(records) == 0 {
			fmt.Println("Your journal is empty. Interpret a dream with --save to start it.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWHEN\tSENTIMENT\tMOOD\tDREAM")
		for _, rec := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				rec.ID,
				rec.Timestamp.Local().Format("2006-01-02 15:04"),
				rec.Sentiment, rec.Mood, truncate(rec.DreamText, 60))
		}
		return w.Flush()
	},
}

// ── forget ───────────────────────────────────────────────────────────────────

var forgetAll bool

var forgetCmd = &cobra.Command{
	Use:   "forget [dream-id]",
	Short: "Remove a dream from your journal, or the whole journal with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildAuth()
		if err != nil {
			return err
		}
		u, err := svc.CurrentUser()
		if err != nil {
			return err
		}
		journal, err := buildJournal(u.Premium())
		if err != nil {
			return err
		}

		if forgetAll {
			if err := journal.Clear(); err != nil {
				return err
			}
			fmt.Println("Journal cleared.")
			return nil
		}
		if len(args) == 0 {
			return fmt.Errorf("provide a dream id or --all")
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid dream id %q", args[0])
		}
		if err := journal.Remove(id); err != nil {
			return err
		}
		fmt.Printf("Forgotten. %d dreams remain.\n", journal.Len())
		return nil
	},
}

func init() {
	forgetCmd.Flags().BoolVar(&forgetAll, "all", false, "clear the entire journal")
}

// ── insights ─────────────────────────────────────────────────────────────────

var insightsJSON bool

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show insight statistics over your journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildAuth()
		if err != nil {
			return err
		}
		u, err := svc.CurrentUser()
		if err != nil {
			return err
		}
		journal, err := buildJournal(u.Premium())
		if err != nil {
			return err
		}

		var api *client.Client
		if !useMock {
			if api, err = apiClient(); err != nil {
				return err
			}
		}
		report, err := insights.NewService(api, zap.NewNop()).Load(context.Background(), journal, time.Now())
		if err != nil {
			return err
		}
		if insightsJSON {
			return printJSON(report.Summary)
		}
		printSummary(report.Summary.Bounded(5))
		return nil
	},
}

func init() {
	insightsCmd.Flags().BoolVar(&insightsJSON, "json", false, "print the full summary as JSON")
}

func printSummary(s *insights.Summary) {
	fmt.Printf("Dreams analyzed: %d\n", s.TotalDreams)
	fmt.Printf("Sentiment: %d positive, %d negative, %d neutral\n",
		s.SentimentAnalysis.Positive, s.SentimentAnalysis.Negative, s.SentimentAnalysis.Neutral)
	if s.AverageClarity > 0 {
		fmt.Printf("Average clarity: %.1f/10\n", s.AverageClarity)
	}
	fmt.Printf("Recent: %d in the last 7 days, %d in the last 30 days\n",
		s.RecentActivity.Last7Days, s.RecentActivity.Last30Days)
	fmt.Printf("Most active day: %s (avg %d chars, longest %d, shortest %d)\n",
		s.DreamPatterns.MostActiveDay, s.DreamPatterns.AverageDreamLength,
		s.DreamPatterns.LongestDream, s.DreamPatterns.ShortestDream)

	if len(s.CommonTags) > 0 {
		fmt.Print("Top tags:")
		for _, tc := range s.CommonTags {
			fmt.Printf(" %s(%d)", tc.Tag, tc.Count)
		}
		fmt.Println()
	}
	if len(s.CommonThemes) > 0 {
		fmt.Print("Top themes:")
		for _, tc := range s.CommonThemes {
			fmt.Printf(" %s(%d)", tc.Theme, tc.Count)
		}
		fmt.Println()
	}
	if len(s.CommonSymbols) > 0 {
		fmt.Print("Top symbols:")
		for _, sc := range s.CommonSymbols {
			fmt.Printf(" %s(%d)", sc.Symbol, sc.Count)
		}
		fmt.Println()
	}
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the lunactl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("lunactl", version)
	},
}

// ── helpers ──────────────────────────────────────────────────────────────────

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinArgs(args []string) string {
	out := args[0]
	for _, a := range args[1:] {
		out += " " + a
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// promptPassword reads a password from stdin. Terminal echo handling is left
// to the shell; lunactl also accepts the password piped in.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	var password string
	if _, err := fmt.Scanln(&password); err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return password, nil
}

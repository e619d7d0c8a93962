package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"jamesfarrell.me/youtube-summary/internal/app"
	"jamesfarrell.me/youtube-summary/internal/config"
)

var (
	languages  []string
	jsonOutput bool
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "ytsummary",
		Short:         "Fetch and summarize YouTube transcripts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	transcriptCmd := &cobra.Command{
		Use:   "transcript <youtube-url>",
		Short: "Print the timestamped transcript of a video",
		Args:  cobra.ExactArgs(1),
		RunE:  runTranscript,
	}

	summarizeCmd := &cobra.Command{
		Use:   "summarize <youtube-url>",
		Short: "Print the title, transcript and summary of a video",
		Args:  cobra.ExactArgs(1),
		RunE:  runSummarize,
	}

	rootCmd.PersistentFlags().StringSliceVar(&languages, "lang", nil, "Preferred transcript languages in order (e.g. en,es)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of text")
	rootCmd.AddCommand(transcriptCmd, summarizeCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, cfg.Logger(os.Stderr)), nil
}

func runTranscript(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	details, err := a.Service.Transcript(cmd.Context(), args[0], languages)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(details.Transcript)
	}

	fmt.Printf("%s\n\n", details.Title)
	for _, seg := range details.Transcript {
		fmt.Printf("[%s] %s\n", seg.Timestamp, seg.Text)
	}
	return nil
}

func runSummarize(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Service.Process(cmd.Context(), args[0], languages)
	if err != nil {
		return err
	}
	if report.SummaryErr != nil {
		log.Printf("summary failed: %v", report.SummaryErr)
	}
	if jsonOutput {
		return printJSON(map[string]any{
			"title":      report.Title,
			"transcript": report.Transcript,
			"summary":    report.Summary,
		})
	}

	fmt.Printf("%s\n%s\n\n%s\n", report.Title, strings.Repeat("=", len(report.Title)), report.Summary)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

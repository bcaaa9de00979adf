package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/video-stream/transcriber/internal/db/models"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved transcriptions",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved transcriptions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		list, err := store.ListTranscriptions(context.Background())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No transcriptions found.")
			return nil
		}
		return writeHistoryTable(cmd.OutOrStdout(), list)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show [ID]",
	Short: "Show a saved transcription",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid transcription ID %q", args[0])
		}
		format, _ := cmd.Flags().GetString("format")

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		t, err := store.GetTranscription(context.Background(), id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch format {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(t)
		case "text":
			writeTranscription(out, t)
			return nil
		default:
			return fmt.Errorf("unknown format %q (use text or json)", format)
		}
	},
}

func writeHistoryTable(w io.Writer, list []models.TranscriptionSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tTITLE\tURL")
	for _, s := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.ID, s.CreatedAt.Local().Format(time.DateTime), s.VideoTitle, s.VideoURL)
	}
	return tw.Flush()
}

func writeTranscription(w io.Writer, t *models.Transcription) {
	fmt.Fprintf(w, "Title:   %s\n", t.VideoTitle)
	fmt.Fprintf(w, "URL:     %s\n", t.VideoURL)
	fmt.Fprintf(w, "Created: %s\n", t.CreatedAt.Local().Format(time.DateTime))
	if t.Duration != nil {
		fmt.Fprintf(w, "Took:    %.2fs\n", *t.Duration)
	}
	if t.WordCount != nil {
		fmt.Fprintf(w, "Words:   %d\n", *t.WordCount)
	}
	fmt.Fprintf(w, "\n%s\n", t.Transcription)
}

func init() {
	historyShowCmd.Flags().String("format", "text", "Output format: text, json")
	historyCmd.AddCommand(historyListCmd, historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

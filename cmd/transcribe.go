package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/video-stream/transcriber/internal/job"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [URL]",
	Short: "Transcribe a media URL and save it to history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _ := cmd.Flags().GetString("engine")
		model, _ := cmd.Flags().GetString("model")
		asJSON, _ := cmd.Flags().GetBool("json")

		req, err := job.NewRequest(args[0], engine, model, cfg.DefaultModel)
		if err != nil {
			return err
		}

		svc, err := newServices(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		return printEvents(cmd.OutOrStdout(), cmd.ErrOrStderr(), svc.pipeline.Run(context.Background(), req), asJSON)
	},
}

// printEvents writes the stream as NDJSON, or as progress on stderr plus the
// transcript on stdout. An error event becomes the returned error.
func printEvents(stdout, stderr io.Writer, events func(func(job.Event) bool), asJSON bool) error {
	enc := json.NewEncoder(stdout)
	var failure error
	for ev := range events {
		if asJSON {
			if err := enc.Encode(ev); err != nil {
				return err
			}
		}
		switch {
		case ev.Error != "":
			failure = errors.New(ev.Error)
		case ev.Step == job.StageComplete && !asJSON:
			fmt.Fprintf(stderr, "Done: %q (%.2fs, %d words, %d paragraphs)\n",
				ev.Data.Title, ev.Data.Stats.Duration, ev.Data.Stats.WordCount, len(ev.Data.Paragraphs))
			writeParagraphs(stdout, ev.Data)
		case !asJSON:
			line := fmt.Sprintf("[%s] %s", ev.Step, ev.Status)
			if ev.Engine != "" {
				line += fmt.Sprintf(" (engine=%s model=%s)", ev.Engine, ev.Model)
			}
			fmt.Fprintln(stderr, line)
		}
	}
	return failure
}

// writeParagraphs prints one paragraph per block, or the raw transcription
// when the recognizer produced no paragraphs.
func writeParagraphs(w io.Writer, result *job.Result) {
	if len(result.Paragraphs) == 0 {
		fmt.Fprintln(w, result.Transcription)
		return
	}
	for i, p := range result.Paragraphs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, p)
	}
}

func init() {
	transcribeCmd.Flags().String("engine", "standard", "Recognition engine: standard or fast")
	transcribeCmd.Flags().String("model", "", "Model size (default: DEFAULT_MODEL)")
	transcribeCmd.Flags().Bool("json", false, "Print the progress stream as NDJSON")
	rootCmd.AddCommand(transcribeCmd)
}

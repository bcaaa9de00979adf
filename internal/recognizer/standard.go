package recognizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/video-stream/transcriber/internal/transcript"
)

// StandardClient is a model loaded on an openai-whisper style server. The
// server answers with verbose JSON whose segments are loose key/value objects.
type StandardClient struct {
	server *inferenceServer
	model  string
	fp16   bool
}

// NewStandardLoader returns a Loader that loads models on the server at baseURL.
func NewStandardLoader(baseURL string, timeout time.Duration) Loader {
	return LoaderFunc(func(ctx context.Context, spec LoadSpec) (Engine, error) {
		c := &StandardClient{
			server: newInferenceServer("whisper", baseURL, timeout),
			model:  spec.ModelSize,
			fp16:   spec.Precision == PrecisionFloat16,
		}
		err := c.server.loadModel(ctx, map[string]any{
			"model":  spec.ModelSize,
			"device": spec.Device,
			"fp16":   c.fp16,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

func (c *StandardClient) Name() string {
	return "whisper/" + c.model
}

// Recognize transcribes audioPath and keeps the server's full text as fallback.
func (c *StandardClient) Recognize(ctx context.Context, audioPath string) (*Output, error) {
	body, err := c.server.transcribe(ctx, audioPath, []formField{
		{"model", c.model},
		{"response_format", "verbose_json"},
		{"temperature", "0"},
		{"fp16", strconv.FormatBool(c.fp16)},
	})
	if err != nil {
		return nil, err
	}
	return parseVerboseJSON(body)
}

type verboseJSON struct {
	Text     *string          `json:"text"`
	Segments []map[string]any `json:"segments"`
}

func parseVerboseJSON(body []byte) (*Output, error) {
	var resp verboseJSON
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse whisper response: %w", err)
	}
	if resp.Text == nil && resp.Segments == nil {
		return nil, fmt.Errorf("whisper response has neither text nor segments")
	}

	out := &Output{Fragments: make([]transcript.Fragment, 0, len(resp.Segments))}
	if resp.Text != nil {
		out.Text = *resp.Text
	}

	for i, seg := range resp.Segments {
		text, ok := seg["text"].(string)
		if !ok {
			return nil, fmt.Errorf("segment %d: missing text", i)
		}
		start, _ := seg["start"].(float64)
		end, _ := seg["end"].(float64)
		out.Fragments = append(out.Fragments, transcript.Fragment{Text: fragmentText(text), Start: start, End: end})
	}
	return out, nil
}

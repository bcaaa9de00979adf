package recognizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/video-stream/transcriber/internal/transcript"
)

// FastClient is a model loaded on a faster-whisper server. Results come back
// as WebVTT and carry no separate full text.
type FastClient struct {
	server      *inferenceServer
	model       string
	computeType string
}

// NewFastLoader returns a Loader that loads models on the server at baseURL.
func NewFastLoader(baseURL string, timeout time.Duration) Loader {
	return LoaderFunc(func(ctx context.Context, spec LoadSpec) (Engine, error) {
		c := &FastClient{
			server:      newInferenceServer("faster-whisper", baseURL, timeout),
			model:       spec.ModelSize,
			computeType: spec.Precision,
		}
		err := c.server.loadModel(ctx, map[string]any{
			"model":        spec.ModelSize,
			"device":       spec.Device,
			"compute_type": spec.Precision,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

func (c *FastClient) Name() string {
	return "faster-whisper/" + c.model
}

func (c *FastClient) Recognize(ctx context.Context, audioPath string) (*Output, error) {
	body, err := c.server.transcribe(ctx, audioPath, []formField{
		{"model", c.model},
		{"response_format", "vtt"},
		{"beam_size", "5"},
	})
	if err != nil {
		return nil, err
	}

	vtt := string(body)
	cues := ParseVTT(vtt)
	if len(cues) == 0 && strings.TrimSpace(vtt) != "" && !strings.HasPrefix(strings.TrimSpace(vtt), "WEBVTT") {
		return nil, fmt.Errorf("faster-whisper response is not WebVTT")
	}

	out := &Output{Fragments: make([]transcript.Fragment, 0, len(cues))}
	for _, cue := range cues {
		out.Fragments = append(out.Fragments, transcript.Fragment{
			Text:  fragmentText(cue.Text),
			Start: cue.Start,
			End:   cue.End,
		})
	}
	return out, nil
}

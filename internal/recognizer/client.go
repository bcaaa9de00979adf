package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type formField struct {
	name  string
	value string
}

// inferenceServer talks to a whisper-style HTTP server exposing a model load
// endpoint and an OpenAI-compatible transcription endpoint.
type inferenceServer struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

func newInferenceServer(name, baseURL string, timeout time.Duration) *inferenceServer {
	return &inferenceServer{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout, // transcription can be very long
		},
	}
}

// loadModel asks the server to load a model. The call blocks until the model is resident.
func (s *inferenceServer) loadModel(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal load request: %w", err)
	}

	url := s.baseURL + "/v1/model/load"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Printf("[%s] loading model via %s: %s", s.name, url, body)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s model load request: %w", s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return statusError(s.name, resp.StatusCode, string(respBody))
	}
	return nil
}

// transcribe uploads the audio file with the given form fields and returns the raw response body.
func (s *inferenceServer) transcribe(ctx context.Context, audioPath string, fields []formField) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	audioFile, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer audioFile.Close()

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audioFile); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}

	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", f.name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	url := s.baseURL + "/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	log.Printf("[%s] sending request to %s (audio: %s)", s.name, url, audioPath)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s server request: %w", s.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(s.name, resp.StatusCode, string(body))
	}
	return body, nil
}

func statusError(name string, status int, body string) error {
	body = strings.TrimSpace(body)
	if isOOMError(body) {
		return fmt.Errorf("GPU out of memory, try a smaller model (status %d): %s", status, body)
	}
	return fmt.Errorf("%s server error (status %d): %s", name, status, body)
}

// isOOMError checks if an error response indicates GPU out-of-memory
func isOOMError(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "out of memory") ||
		strings.Contains(lower, "cuda oom") ||
		strings.Contains(lower, "memory") && strings.Contains(lower, "allocat")
}

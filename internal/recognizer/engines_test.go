package recognizer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/video-stream/transcriber/internal/transcript"
)

// fakeServer records the load payload and transcription form, answering with the given body.
type fakeServer struct {
	loadPayload map[string]any
	form        map[string]string
	audio       []byte
	status      int
	body        string
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/model/load", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.loadPayload))
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /v1/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		f.form = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			f.form[k] = v[0]
		}
		if file, _, err := r.FormFile("file"); assert.NoError(t, err) {
			f.audio, _ = io.ReadAll(file)
		}
		if f.status != 0 {
			w.WriteHeader(f.status)
		}
		io.WriteString(w, f.body)
	})
	return mux
}

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "abc.mp3")
	require.NoError(t, os.WriteFile(path, []byte("ID3fake"), 0o644))
	return path
}

func TestStandardClient_Recognize(t *testing.T) {
	fake := &fakeServer{body: `{"text":" Hello world. Bye.","segments":[{"id":0,"start":0.0,"end":1.5,"text":" Hello world."},{"id":1,"start":1.5,"end":2.0,"text":" Bye."}]}`}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	engine, err := NewStandardLoader(srv.URL, time.Minute).Load(context.Background(), LoadSpec{
		Kind: Standard, ModelSize: "base", Device: "cuda", Precision: PrecisionFloat16,
	})
	require.NoError(t, err)
	assert.Equal(t, "whisper/base", engine.Name())
	assert.Equal(t, map[string]any{"model": "base", "device": "cuda", "fp16": true}, fake.loadPayload)

	out, err := engine.Recognize(context.Background(), writeAudio(t))
	require.NoError(t, err)
	assert.Equal(t, "verbose_json", fake.form["response_format"])
	assert.Equal(t, "true", fake.form["fp16"])
	assert.Equal(t, []byte("ID3fake"), fake.audio)
	assert.Equal(t, " Hello world. Bye.", out.Text)
	assert.Equal(t, []transcript.Fragment{
		{Text: " Hello world.", Start: 0, End: 1.5},
		{Text: " Bye.", Start: 1.5, End: 2.0},
	}, out.Fragments)
}

func TestStandardClient_MalformedSegment(t *testing.T) {
	fake := &fakeServer{body: `{"text":"x","segments":[{"start":0,"end":1}]}`}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	engine, err := NewStandardLoader(srv.URL, time.Minute).Load(context.Background(), LoadSpec{ModelSize: "tiny"})
	require.NoError(t, err)

	_, err = engine.Recognize(context.Background(), writeAudio(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing text")
}

func TestStandardClient_ServerError(t *testing.T) {
	fake := &fakeServer{status: http.StatusInternalServerError, body: "CUDA out of memory. Tried to allocate 2 GiB"}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	engine, err := NewStandardLoader(srv.URL, time.Minute).Load(context.Background(), LoadSpec{ModelSize: "large"})
	require.NoError(t, err)

	_, err = engine.Recognize(context.Background(), writeAudio(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GPU out of memory, try a smaller model")
}

func TestStandardLoader_LoadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown model", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewStandardLoader(srv.URL, time.Minute).Load(context.Background(), LoadSpec{ModelSize: "tiny"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestFastClient_Recognize(t *testing.T) {
	fake := &fakeServer{body: "WEBVTT\n\n1\n00:00:00.000 --> 00:00:02.500\nHello\nthere.\n\n00:02.500 --> 00:04.000\nSecond cue.\n"}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	engine, err := NewFastLoader(srv.URL, time.Minute).Load(context.Background(), LoadSpec{
		Kind: Fast, ModelSize: "small", Device: "cpu", Precision: PrecisionInt8,
	})
	require.NoError(t, err)
	assert.Equal(t, "faster-whisper/small", engine.Name())
	assert.Equal(t, map[string]any{"model": "small", "device": "cpu", "compute_type": "int8"}, fake.loadPayload)

	out, err := engine.Recognize(context.Background(), writeAudio(t))
	require.NoError(t, err)
	assert.Equal(t, "vtt", fake.form["response_format"])
	assert.Equal(t, "5", fake.form["beam_size"])
	assert.Empty(t, out.Text)
	assert.Equal(t, []transcript.Fragment{
		{Text: "Hello there.", Start: 0, End: 2.5},
		{Text: "Second cue.", Start: 2.5, End: 4.0},
	}, out.Fragments)
}

func TestFastClient_NotVTT(t *testing.T) {
	fake := &fakeServer{body: `{"detail":"oops"}`}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	engine, err := NewFastLoader(srv.URL, time.Minute).Load(context.Background(), LoadSpec{ModelSize: "tiny"})
	require.NoError(t, err)

	_, err = engine.Recognize(context.Background(), writeAudio(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not WebVTT")
}

func TestStandardClient_LineBreaksInSegments(t *testing.T) {
	out, err := parseVerboseJSON([]byte(`{"text":"x","segments":[{"start":0,"end":1,"text":" Hello.\n\nWorld."},{"start":1,"end":2,"text":"Again\r\nand again."}]}`))
	require.NoError(t, err)
	assert.Equal(t, " Hello. World.", out.Fragments[0].Text)
	assert.Equal(t, "Again and again.", out.Fragments[1].Text)

	formatted := transcript.Format(out.Fragments, out.Text)
	assert.Equal(t, formatted.Paragraphs, strings.Split(formatted.FullText, "\n\n"))
}

func TestFastClient_LineBreaksInCues(t *testing.T) {
	fake := &fakeServer{body: "WEBVTT\n\n00:00.000 --> 00:01.000\nfirst line\n  second line\n"}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	engine, err := NewFastLoader(srv.URL, time.Minute).Load(context.Background(), LoadSpec{ModelSize: "tiny"})
	require.NoError(t, err)
	out, err := engine.Recognize(context.Background(), writeAudio(t))
	require.NoError(t, err)
	require.Len(t, out.Fragments, 1)
	assert.Equal(t, "first line second line", out.Fragments[0].Text)
}

func TestParseVTT(t *testing.T) {
	cues := ParseVTT("WEBVTT\r\n\r\nintro\r\n00:01:02,250 --> 01:00:00.000\r\nline\r\n")
	require.Len(t, cues, 1)
	assert.Equal(t, Cue{Start: 62.25, End: 3600, Text: "line"}, cues[0])

	assert.Empty(t, ParseVTT("WEBVTT\n\n"))
}

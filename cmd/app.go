package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/video-stream/transcriber/internal/config"
	"github.com/video-stream/transcriber/internal/db"
	"github.com/video-stream/transcriber/internal/device"
	"github.com/video-stream/transcriber/internal/fetch"
	"github.com/video-stream/transcriber/internal/job"
	"github.com/video-stream/transcriber/internal/recognizer"
)

// services holds everything a transcription run needs.
type services struct {
	store    *db.Database
	device   device.Info
	engines  *recognizer.Cache
	pipeline *job.Pipeline
}

func openStore(cfg *config.Config) (*db.Database, error) {
	if err := os.MkdirAll(cfg.DataPath, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	store, err := db.NewSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

func newServices(cfg *config.Config) (*services, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DownloadPath, 0755); err != nil {
		store.Close()
		return nil, fmt.Errorf("create download directory: %w", err)
	}

	info := device.NewSelector(cfg.Device, device.HostProbe()).Detect()
	log.Printf("Device: %s (forced=%v) gpu=%q", info.Kind, info.Forced, info.GPU.Device)

	timeout := time.Duration(cfg.HTTPTimeoutMinutes) * time.Minute
	engines := recognizer.NewCache(info.Kind, map[recognizer.Kind]recognizer.Loader{
		recognizer.Standard: recognizer.NewStandardLoader(cfg.WhisperURL, timeout),
		recognizer.Fast:     recognizer.NewFastLoader(cfg.FastWhisperURL, timeout),
	})

	pipeline := job.NewPipeline(fetch.NewYtDlp(cfg.YtDlpPath), engines, store, cfg.DownloadPath)

	return &services{
		store:    store,
		device:   info,
		engines:  engines,
		pipeline: pipeline,
	}, nil
}

func (s *services) Close() error {
	return s.store.Close()
}

package handlers

import (
	"net/http"

	"github.com/video-stream/transcriber/internal/device"
	"github.com/video-stream/transcriber/internal/recognizer"
)

// EngineLister reports instantiated engines. *recognizer.Cache implements it.
type EngineLister interface {
	Loaded() []string
}

type DeviceHandler struct {
	info    device.Info
	engines EngineLister
}

func NewDeviceHandler(info device.Info, engines EngineLister) *DeviceHandler {
	return &DeviceHandler{info: info, engines: engines}
}

type enginePolicy struct {
	Device    string `json:"device"`
	Precision string `json:"precision"`
}

type deviceResponse struct {
	device.Info
	Engines map[recognizer.Kind]enginePolicy `json:"engines"`
	Loaded  []string                         `json:"loaded"`
}

// Device returns the selected device and how each engine kind runs on it
func (h *DeviceHandler) Device(w http.ResponseWriter, r *http.Request) {
	resp := deviceResponse{
		Info:    h.info,
		Engines: make(map[recognizer.Kind]enginePolicy, 2),
		Loaded:  h.engines.Loaded(),
	}
	for _, kind := range []recognizer.Kind{recognizer.Standard, recognizer.Fast} {
		dev, prec := recognizer.PolicyFor(kind, h.info.Kind)
		resp.Engines[kind] = enginePolicy{Device: dev, Precision: prec}
	}
	jsonResponse(w, resp, http.StatusOK)
}

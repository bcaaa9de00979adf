package device

import (
	"context"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Kind is the acceleration class recognition engines run on.
type Kind string

const (
	CPU  Kind = "cpu"
	CUDA Kind = "cuda"
	MPS  Kind = "mps" // Apple unified memory
)

// Accelerated reports whether half precision is worth using on this device.
func (k Kind) Accelerated() bool {
	return k == CUDA || k == MPS
}

// GPUInfo holds detected GPU information
type GPUInfo struct {
	Device    string `json:"device"`     // e.g. "NVIDIA GPU (2684)"
	VRAMTotal int64  `json:"vram_total"` // bytes, 0 if unknown
	VRAMFree  int64  `json:"vram_free"`  // bytes, 0 if unknown
	Driver    string `json:"driver"`     // e.g. "nvidia"
}

// Info is the process-wide device selection.
type Info struct {
	Kind   Kind    `json:"kind"`
	Forced bool    `json:"forced"` // set by configuration instead of probing
	GPU    GPUInfo `json:"gpu"`
}

// Probe abstracts the host so detection can run against a fake system in tests.
type Probe struct {
	GOOS    string
	GOARCH  string
	SysRoot string // prefix for /proc, /dev and /sys lookups
	// RunNvidiaSMI returns nil when nvidia-smi lists at least one GPU.
	RunNvidiaSMI func(ctx context.Context) error
}

// HostProbe inspects the running machine.
func HostProbe() Probe {
	return Probe{
		GOOS:         runtime.GOOS,
		GOARCH:       runtime.GOARCH,
		SysRoot:      "/",
		RunNvidiaSMI: runNvidiaSMI,
	}
}

// Selector picks the device once and caches it for the process lifetime.
type Selector struct {
	override string
	probe    Probe

	once sync.Once
	info Info
}

// NewSelector creates a selector. override is "auto" (or empty) to probe,
// or one of "cpu", "cuda", "mps" to skip probing.
func NewSelector(override string, probe Probe) *Selector {
	return &Selector{override: strings.ToLower(strings.TrimSpace(override)), probe: probe}
}

// Detect returns the selected device. Safe to call multiple times.
func (s *Selector) Detect() Info {
	s.once.Do(func() {
		s.info = s.detect()
		log.Printf("[device] selected: kind=%s forced=%t gpu=%q vram_total=%d MB driver=%s",
			s.info.Kind, s.info.Forced,
			s.info.GPU.Device,
			s.info.GPU.VRAMTotal/1024/1024,
			s.info.GPU.Driver)
	})
	return s.info
}

func (s *Selector) detect() Info {
	info := Info{GPU: detectGPU(s.probe.SysRoot)}

	switch Kind(s.override) {
	case CPU, CUDA, MPS:
		info.Kind = Kind(s.override)
		info.Forced = true
		return info
	case "", "auto":
	default:
		log.Printf("[device] unknown device override %q, probing instead", s.override)
	}

	switch {
	case s.hasCUDA():
		info.Kind = CUDA
	case s.probe.GOOS == "darwin" && s.probe.GOARCH == "arm64":
		info.Kind = MPS
	default:
		info.Kind = CPU
	}
	return info
}

func (s *Selector) hasCUDA() bool {
	root := s.probe.SysRoot
	for _, p := range []string{"proc/driver/nvidia/version", "dev/nvidia0"} {
		if _, err := os.Stat(filepath.Join(root, p)); err == nil {
			return true
		}
	}
	if s.probe.RunNvidiaSMI == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.probe.RunNvidiaSMI(ctx) == nil
}

func runNvidiaSMI(ctx context.Context) error {
	path, err := exec.LookPath("nvidia-smi")
	if err != nil {
		return err
	}
	out, err := exec.CommandContext(ctx, path, "-L").Output()
	if err != nil {
		return err
	}
	if !strings.Contains(string(out), "GPU") {
		return os.ErrNotExist
	}
	return nil
}

// detectGPU scans <root>/sys/class/drm/card* for a discrete GPU with VRAM info.
func detectGPU(root string) GPUInfo {
	info := GPUInfo{}

	cards, err := filepath.Glob(filepath.Join(root, "sys/class/drm/card[0-9]*"))
	if err != nil {
		return info
	}

	for _, card := range cards {
		// Skip connectors (cardN-XXX)
		if strings.Contains(filepath.Base(card), "-") {
			continue
		}

		deviceDir := filepath.Join(card, "device")

		vramBytes, err := readSysfsInt(filepath.Join(deviceDir, "mem_info_vram_total"))
		if err != nil || vramBytes == 0 {
			continue
		}
		info.VRAMTotal = vramBytes

		vramUsed, err := readSysfsInt(filepath.Join(deviceDir, "mem_info_vram_used"))
		if err == nil && vramUsed > 0 {
			info.VRAMFree = vramBytes - vramUsed
		}

		info.Device = readDeviceName(deviceDir)

		if driverLink, err := os.Readlink(filepath.Join(deviceDir, "driver")); err == nil {
			info.Driver = filepath.Base(driverLink)
		}
		break
	}

	return info
}

func readSysfsInt(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
}

func readDeviceName(deviceDir string) string {
	data, err := os.ReadFile(filepath.Join(deviceDir, "uevent"))
	if err != nil {
		return "Unknown GPU"
	}

	var vendorID, deviceID string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "PCI_ID=") {
			parts := strings.Split(strings.TrimPrefix(line, "PCI_ID="), ":")
			if len(parts) == 2 {
				vendorID = strings.ToLower(parts[0])
				deviceID = strings.ToLower(parts[1])
			}
		}
	}

	switch vendorID {
	case "10de":
		return "NVIDIA GPU (" + deviceID + ")"
	case "1002":
		return "AMD GPU (" + deviceID + ")"
	case "8086":
		return "Intel GPU (" + deviceID + ")"
	}
	return "GPU (" + vendorID + ":" + deviceID + ")"
}

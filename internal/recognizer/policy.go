package recognizer

import "github.com/video-stream/transcriber/internal/device"

const (
	PrecisionFloat32 = "float32"
	PrecisionFloat16 = "float16"
	PrecisionInt8    = "int8"
)

// PolicyFor returns the device name and precision an engine kind is loaded with.
// The fast engine only supports half precision on CUDA, so every other device
// runs it on the CPU in int8.
func PolicyFor(kind Kind, dev device.Kind) (deviceName, precision string) {
	if kind == Fast {
		if dev == device.CUDA {
			return string(device.CUDA), PrecisionFloat16
		}
		return string(device.CPU), PrecisionInt8
	}
	if dev.Accelerated() {
		return string(dev), PrecisionFloat16
	}
	return string(dev), PrecisionFloat32
}

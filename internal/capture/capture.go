// Package capture provides the microphone frame pipeline and the PCM/JPEG
// encoding used by the realtime session's push path.
package capture

import (
	"encoding/base64"
	"encoding/binary"
	"time"
)

// Mime types for realtime input frames.
const (
	MimePCM16k = "audio/pcm;rate=16000"
	MimeJPEG   = "image/jpeg"
)

// Source yields fixed-size microphone frames as float32 samples in [-1, 1].
// ReadFrame blocks until a frame is available; it returns an error when the
// device is closed.
type Source interface {
	ReadFrame() ([]float32, error)
	Close() error
}

// VideoGrabber yields one JPEG-encoded frame per call, already downsampled by
// the device layer.
type VideoGrabber interface {
	Grab() ([]byte, error)
}

// Frame is one encoded realtime input frame ready for the wire.
type Frame struct {
	Data     string // base64 payload
	MimeType string
	Captured time.Time
}

// EncodeAudioFrame converts float samples to 16-bit signed PCM and base64
// encodes them, one wire frame per capture frame with no batching.
func EncodeAudioFrame(samples []float32) Frame {
	return Frame{
		Data:     base64.StdEncoding.EncodeToString(Float32ToPCM16(samples)),
		MimeType: MimePCM16k,
		Captured: time.Now(),
	}
}

// EncodeVideoFrame wraps JPEG bytes for the wire.
func EncodeVideoFrame(jpeg []byte) Frame {
	return Frame{
		Data:     base64.StdEncoding.EncodeToString(jpeg),
		MimeType: MimeJPEG,
		Captured: time.Now(),
	}
}

// Float32ToPCM16 converts [-1, 1] samples to little-endian 16-bit PCM,
// clipping out-of-range values instead of wrapping.
func Float32ToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := s * 32768
		if v > 32767 {
			v = 32767
		}
		if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}

// PCM16ToFloat32 is the inverse conversion, used by playback tests and local
// monitoring.
func PCM16ToFloat32(pcm []byte) []float32 {
	out := make([]float32, len(pcm)/2)
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768.0
	}
	return out
}

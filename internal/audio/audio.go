// Package audio defines the microphone capture contract used by the cloud
// dictation backend and packages captured samples as WAV.
package audio

import (
	"context"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// MimeWAV is the content type of EncodeWAV output.
const MimeWAV = "audio/wav"

// Recording is a finished capture ready to upload.
type Recording struct {
	Data     []byte
	MimeType string
}

// Device opens exclusive captures on an input device.
type Device interface {
	Open(ctx context.Context) (Capture, error)
}

// Capture is an open input stream. Stop releases the device even when it
// returns an error.
type Capture interface {
	Stop() (Recording, error)
}

// EncodeWAV packages 16-bit PCM samples as a WAV file.
func EncodeWAV(samples []int16, rate, channels int) ([]byte, error) {
	// wav.Encoder needs an io.WriteSeeker.
	f, err := os.CreateTemp("", "foxfocus-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create temp wav: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  rate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalize wav: %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind wav: %w", err)
	}
	out, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read wav: %w", err)
	}
	return out, nil
}

// Package portaudio captures microphone input through PortAudio.
package portaudio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Smailkiller/FOXFOCUS/internal/audio"
	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"
)

const framesPerBuffer = 1024

// Device is the default PortAudio input device.
type Device struct {
	SampleRate int
	Channels   int
	Log        zerolog.Logger
}

var _ audio.Device = (*Device)(nil)

// Open initializes PortAudio and starts streaming from the default input.
func (d *Device) Open(ctx context.Context) (audio.Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}

	in := make([]int16, framesPerBuffer*d.Channels)
	stream, err := portaudio.OpenDefaultStream(d.Channels, 0, float64(d.SampleRate), framesPerBuffer, in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("start input stream: %w", err)
	}

	c := &capture{
		stream:   stream,
		in:       in,
		rate:     d.SampleRate,
		channels: d.Channels,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		log:      d.Log,
	}
	go c.read()

	d.Log.Debug().Int("rate", d.SampleRate).Int("channels", d.Channels).Msg("microphone opened")
	return c, nil
}

type capture struct {
	stream   *portaudio.Stream
	in       []int16
	rate     int
	channels int
	log      zerolog.Logger

	mu      sync.Mutex
	samples []int16
	readErr error

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func (c *capture) read() {
	defer close(c.done)
	for {
		select {
		case <-c.stop:
			return
		default:
		}
		if err := c.stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				continue
			}
			c.mu.Lock()
			c.readErr = err
			c.mu.Unlock()
			return
		}
		c.mu.Lock()
		c.samples = append(c.samples, c.in...)
		c.mu.Unlock()
	}
}

// Stop ends the stream, releases PortAudio and returns the WAV payload.
func (c *capture) Stop() (audio.Recording, error) {
	var rec audio.Recording
	var err error

	c.stopOnce.Do(func() {
		close(c.stop)
		<-c.done

		if serr := c.stream.Stop(); serr != nil {
			c.log.Warn().Err(serr).Msg("stop input stream")
		}
		if cerr := c.stream.Close(); cerr != nil {
			c.log.Warn().Err(cerr).Msg("close input stream")
		}
		if terr := portaudio.Terminate(); terr != nil {
			c.log.Warn().Err(terr).Msg("terminate portaudio")
		}

		c.mu.Lock()
		samples, readErr := c.samples, c.readErr
		c.mu.Unlock()

		if readErr != nil && len(samples) == 0 {
			err = fmt.Errorf("read input stream: %w", readErr)
			return
		}

		data, eerr := audio.EncodeWAV(samples, c.rate, c.channels)
		if eerr != nil {
			err = eerr
			return
		}
		rec = audio.Recording{Data: data, MimeType: audio.MimeWAV}
		c.log.Debug().Int("samples", len(samples)).Int("bytes", len(data)).Msg("microphone released")
	})

	return rec, err
}

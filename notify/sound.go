package notify

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"bsid.es/despertador"
)

const (
	toneSampleRate = 44100
	toneFrequency  = 880.0
	toneDuration   = time.Second
)

// SoundPlayer plays a short alert tone through the system audio device when
// a fired alarm has sound enabled. The audio context is created lazily on
// the first firing; oto allows only one context per process.
type SoundPlayer struct {
	once sync.Once
	ctx  *oto.Context
	err  error
}

func NewSoundPlayer() *SoundPlayer {
	return &SoundPlayer{}
}

var _ Notifier = (*SoundPlayer)(nil)

func (p *SoundPlayer) init() {
	p.once.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   toneSampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			p.err = err
			return
		}
		// Wait for the hardware audio device to come up.
		<-ready
		p.ctx = ctx
	})
}

func (p *SoundPlayer) Notify(ctx context.Context, alarm despertador.Alarm) error {
	if !alarm.SoundEnabled {
		return nil
	}
	p.init()
	if p.err != nil {
		return p.err
	}

	player := p.ctx.NewPlayer(bytes.NewReader(tone()))
	player.Play()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Close()
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	return player.Close()
}

// tone synthesizes the alert tone as 16-bit little-endian PCM: a sine wave
// with a short attack/release envelope so playback doesn't click.
func tone() []byte {
	samples := int(toneDuration.Seconds() * toneSampleRate)
	ramp := toneSampleRate / 50
	buf := make([]byte, 2*samples)
	for i := 0; i < samples; i++ {
		v := math.Sin(2 * math.Pi * toneFrequency * float64(i) / toneSampleRate)
		gain := 0.3
		switch {
		case i < ramp:
			gain *= float64(i) / float64(ramp)
		case i > samples-ramp:
			gain *= float64(samples-i) / float64(ramp)
		}
		s := int16(v * gain * math.MaxInt16)
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(s))
	}
	return buf
}

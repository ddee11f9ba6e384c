// Package audio synthesizes the two short feedback cues played by the booth:
// an ascending three-tone chime for a correct press and a falling buzzer for
// a wrong one. Cues are rendered once, on first use, as 16-bit mono WAV.
package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Cue names a feedback sound.
type Cue string

const (
	CueSuccess Cue = "success"
	CueError   Cue = "error"
)

const DefaultSampleRate = 22050

// ErrUnknownCue is returned for cue names the engine cannot render.
var ErrUnknownCue = errors.New("unknown cue")

// tone is one oscillator with an exponential gain envelope and an optional
// exponential frequency sweep, active over [start, stop) seconds.
type tone struct {
	wave        func(phase float64) float64
	freqFrom    float64
	freqTo      float64
	gainFrom    float64
	gainTo      float64
	start, stop float64
}

var cues = map[Cue][]tone{
	CueSuccess: {
		{wave: sine, freqFrom: 523, freqTo: 523, gainFrom: 0.3, gainTo: 0.01, start: 0, stop: 0.15},
		{wave: sine, freqFrom: 659, freqTo: 659, gainFrom: 0.3, gainTo: 0.01, start: 0.1, stop: 0.25},
		{wave: sine, freqFrom: 784, freqTo: 784, gainFrom: 0.3, gainTo: 0.01, start: 0.2, stop: 0.4},
	},
	CueError: {
		{wave: square, freqFrom: 200, freqTo: 100, gainFrom: 0.3, gainTo: 0.01, start: 0, stop: 0.3},
	},
}

func sine(phase float64) float64 { return math.Sin(2 * math.Pi * phase) }

func square(phase float64) float64 {
	if phase-math.Floor(phase) < 0.5 {
		return 1
	}
	return -1
}

// expRamp interpolates exponentially from a to b as t goes from 0 to 1.
func expRamp(a, b, t float64) float64 {
	return a * math.Pow(b/a, t)
}

// Render mixes the tones of cue into PCM samples at sampleRate.
func Render(cue Cue, sampleRate int) ([]int16, error) {
	tones, ok := cues[cue]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCue, cue)
	}
	if sampleRate < 8000 {
		return nil, fmt.Errorf("sample rate %d too low", sampleRate)
	}

	var end float64
	for _, t := range tones {
		end = math.Max(end, t.stop)
	}
	mix := make([]float64, int(math.Ceil(end*float64(sampleRate))))

	dt := 1 / float64(sampleRate)
	for _, t := range tones {
		first := int(math.Round(t.start * float64(sampleRate)))
		last := min(int(math.Round(t.stop*float64(sampleRate))), len(mix))
		dur := t.stop - t.start
		var phase float64
		for i := first; i < last; i++ {
			p := (float64(i)*dt - t.start) / dur
			mix[i] += expRamp(t.gainFrom, t.gainTo, p) * t.wave(phase)
			phase += expRamp(t.freqFrom, t.freqTo, p) * dt
		}
	}

	out := make([]int16, len(mix))
	for i, v := range mix {
		v = math.Max(-1, math.Min(1, v))
		out[i] = int16(math.Round(v * math.MaxInt16))
	}
	return out, nil
}

// EncodeWAV wraps PCM samples in a 16-bit mono RIFF/WAVE container.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	const (
		bitDepth = 16
		channels = 1
		pcm      = 1
	)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	out := &seekBuffer{}
	enc := wav.NewEncoder(out, sampleRate, bitDepth, channels, pcm)
	err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("writing wav samples: %w", err)
	}
	// Close patches the RIFF and data chunk sizes.
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finishing wav: %w", err)
	}
	return out.buf, nil
}

// seekBuffer is an in-memory io.WriteSeeker for the WAV encoder.
type seekBuffer struct {
	buf []byte
	pos int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if end := b.pos + len(p); end > len(b.buf) {
		b.buf = append(b.buf, make([]byte, end-len(b.buf))...)
	}
	n := copy(b.buf[b.pos:], p)
	b.pos += n
	return n, nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(b.pos)
	case io.SeekEnd:
		base = int64(len(b.buf))
	default:
		return 0, fmt.Errorf("seek: bad whence %d", whence)
	}
	pos := base + offset
	if pos < 0 {
		return 0, errors.New("seek: negative position")
	}
	b.pos = int(pos)
	return pos, nil
}

// Engine renders cues lazily and caches them for the life of the process.
// A cue that fails to render stays silent: WAV returns nil instead of an error.
type Engine struct {
	sampleRate int

	once  sync.Once
	wavs  map[Cue][]byte
	fails map[Cue]error
}

func NewEngine(sampleRate int) *Engine {
	return &Engine{sampleRate: sampleRate}
}

func (e *Engine) init() {
	e.wavs = make(map[Cue][]byte, len(cues))
	e.fails = make(map[Cue]error)
	for cue := range cues {
		samples, err := Render(cue, e.sampleRate)
		if err != nil {
			e.fails[cue] = err
			continue
		}
		encoded, err := EncodeWAV(samples, e.sampleRate)
		if err != nil {
			e.fails[cue] = err
			continue
		}
		e.wavs[cue] = encoded
	}
}

// WAV returns the encoded cue, or nil when it is unknown or unavailable.
func (e *Engine) WAV(cue Cue) []byte {
	e.once.Do(e.init)
	return e.wavs[cue]
}

// Err reports why cue is unavailable, if it is.
func (e *Engine) Err(cue Cue) error {
	e.once.Do(e.init)
	if err, ok := e.fails[cue]; ok {
		return err
	}
	if _, ok := e.wavs[cue]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCue, cue)
	}
	return nil
}

var (
	sharedOnce sync.Once
	shared     *Engine
	sharedRate = DefaultSampleRate
)

// Configure sets the sample rate of the shared engine. It has no effect once
// Shared has been called.
func Configure(sampleRate int) {
	sharedRate = sampleRate
}

// Shared returns the process-wide engine, creating it on first use.
func Shared() *Engine {
	sharedOnce.Do(func() {
		shared = NewEngine(sharedRate)
	})
	return shared
}

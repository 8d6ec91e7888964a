package audio

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/jmylchreest/cybor/internal/config"
)

// Player decodes sound files and plays them on the speaker.
type Player struct {
	mu     sync.Mutex
	logger *slog.Logger

	// Volume control (0.0 to 1.0)
	volume float64

	initialized bool
	sampleRate  beep.SampleRate

	cache      map[string]*cachedSound
	cacheMutex sync.RWMutex

	// Speaker hooks, replaced in tests.
	initSpeaker  func(beep.SampleRate, int) error
	playSpeaker  func(...beep.Streamer)
	closeSpeaker func()
}

// cachedSound holds a decoded sound and the file time it was decoded from.
type cachedSound struct {
	buffer  *beep.Buffer
	modTime time.Time
}

// NewPlayer creates a new audio player.
func NewPlayer(logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}

	return &Player{
		logger:       logger,
		volume:       1.0,
		sampleRate:   beep.SampleRate(44100),
		cache:        make(map[string]*cachedSound),
		initSpeaker:  speaker.Init,
		playSpeaker:  speaker.Play,
		closeSpeaker: speaker.Close,
	}
}

// SetVolume sets the playback volume, clamped to 0.0-1.0.
func (p *Player) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = math.Max(0, math.Min(1, volume))
}

// Volume returns the current volume.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Play plays a sound file. A file that changed on disk since it was cached
// is decoded again.
func (p *Player) Play(path string) error {
	if path == "" {
		return nil
	}

	buffer, err := p.load(config.ExpandPath(path))
	if err != nil {
		return err
	}
	return p.playBuffer(buffer)
}

// Preload decodes a sound file into the cache.
func (p *Player) Preload(path string) error {
	if path == "" {
		return nil
	}
	_, err := p.load(config.ExpandPath(path))
	return err
}

// load returns the cached buffer for path, decoding it when missing or stale.
func (p *Player) load(path string) (*beep.Buffer, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}

	p.cacheMutex.RLock()
	cached, ok := p.cache[path]
	p.cacheMutex.RUnlock()

	if ok && cached.modTime.Equal(info.ModTime()) {
		return cached.buffer, nil
	}
	if ok {
		p.logger.Debug("sound file changed, reloading", "path", path)
	}

	buffer, err := p.decode(path)
	if err != nil {
		return nil, err
	}

	p.cacheMutex.Lock()
	p.cache[path] = &cachedSound{buffer: buffer, modTime: info.ModTime()}
	p.cacheMutex.Unlock()

	return buffer, nil
}

// decode reads a WAV, OGG or MP3 file into a buffer.
func (p *Player) decode(path string) (*beep.Buffer, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var decodeFn func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)
	switch ext {
	case ".wav":
		decodeFn = func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(f) }
	case ".ogg":
		decodeFn = func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return vorbis.Decode(f) }
	case ".mp3":
		decodeFn = func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return mp3.Decode(f) }
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}
	defer func() { _ = f.Close() }()

	streamer, format, err := decodeFn(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sound: %w", err)
	}
	defer func() { _ = streamer.Close() }()

	if err := p.ensureInitialized(format.SampleRate); err != nil {
		return nil, err
	}

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	return buffer, nil
}

// ensureInitialized initializes the speaker at the first decoded sample rate.
func (p *Player) ensureInitialized(sampleRate beep.SampleRate) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	bufferSize := sampleRate.N(100 * time.Millisecond)
	if err := p.initSpeaker(sampleRate, bufferSize); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	p.sampleRate = sampleRate
	p.initialized = true
	p.logger.Debug("speaker initialized", "sample_rate", sampleRate)
	return nil
}

// playBuffer resamples and attenuates a buffer, then hands it to the speaker.
func (p *Player) playBuffer(buffer *beep.Buffer) error {
	p.mu.Lock()
	volume := p.volume
	sampleRate := p.sampleRate
	p.mu.Unlock()

	var streamer beep.Streamer = buffer.Streamer(0, buffer.Len())

	if buffer.Format().SampleRate != sampleRate {
		streamer = beep.Resample(4, buffer.Format().SampleRate, sampleRate, streamer)
	}

	if volume < 1.0 {
		streamer = &effects.Volume{
			Streamer: streamer,
			Base:     2,
			Volume:   volumeToExponent(volume),
			Silent:   volume == 0,
		}
	}

	p.playSpeaker(streamer)
	return nil
}

// Cached reports whether path is in the cache.
func (p *Player) Cached(path string) bool {
	p.cacheMutex.RLock()
	defer p.cacheMutex.RUnlock()
	_, ok := p.cache[config.ExpandPath(path)]
	return ok
}

// ClearCache clears the sound cache.
func (p *Player) ClearCache() {
	p.cacheMutex.Lock()
	defer p.cacheMutex.Unlock()
	p.cache = make(map[string]*cachedSound)
}

// Close stops all playback and releases the speaker.
func (p *Player) Close() {
	p.mu.Lock()
	if p.initialized {
		p.closeSpeaker()
		p.initialized = false
	}
	p.mu.Unlock()

	p.ClearCache()
	p.logger.Debug("audio player closed")
}

// volumeToExponent converts a linear volume (0-1) to a base-2 exponent for
// effects.Volume: 0.5 is -1, 0.25 is -2.
func volumeToExponent(volume float64) float64 {
	if volume <= 0 {
		return -10
	}
	return math.Log2(volume)
}

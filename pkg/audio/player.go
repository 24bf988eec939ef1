// Package audio provides playback of voice-line clips.
package audio

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"convoscope/pkg/config"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// Service defines the interface for audio playback control.
type Service interface {
	// Play starts playback of an audio file. If startPaused is true, loads but pauses immediately.
	// onComplete is called when playback finishes (not when stopped/paused manually).
	Play(filepath string, startPaused bool, onComplete func()) error
	// Pause pauses current playback.
	Pause()
	// Resume resumes paused playback.
	Resume()
	// Stop stops current playback.
	Stop()

	// IsPlaying returns true if audio is currently playing (not paused).
	IsPlaying() bool
	// IsBusy returns true if audio is loaded/playing/paused (ctrl is not nil).
	IsBusy() bool
	// IsPaused returns true if playback is paused.
	IsPaused() bool
	// SetVolume sets playback volume (0.0 to 1.0).
	SetVolume(vol float64)
	// Volume returns current volume level.
	Volume() float64
	// LastPlayedFile returns the path of the last played clip.
	LastPlayedFile() string
	// Replay replays the last clip. Returns true if successful.
	Replay(onComplete func()) bool
	// Position returns the current playback position.
	Position() time.Duration
	// Duration returns the total duration of the current audio.
	Duration() time.Duration
	// Remaining returns the remaining time of the current playback.
	Remaining() time.Duration
}

// Player implements the Service interface using gopxl/beep.
type Player struct {
	mu                 sync.RWMutex
	ctrl               *beep.Ctrl
	volume             float64
	isPaused           bool
	lastPlayedFile     string
	speakerInitialized bool
	currentSampleRate  beep.SampleRate
	streamer           *effects.Volume
	trackStreamer      beep.StreamSeekCloser
	trackFormat        beep.Format
}

// New creates a new Player. The initial volume comes from the config,
// clamped to [0,1].
func New(cfg *config.AudioConfig) *Player {
	vol := 1.0
	if cfg != nil {
		vol = cfg.Volume
	}
	if vol < 0 {
		vol = 0
	} else if vol > 1 {
		vol = 1
	}
	return &Player{volume: vol}
}

// Play starts playback of an audio file.
func (p *Player) Play(filepath string, startPaused bool, onComplete func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Stop any current playback and close the file handle
	p.stopLocked()

	streamer, format, err := p.decodeStreamer(filepath)
	if err != nil {
		return err
	}

	if err := p.ensureSpeakerInitialized(streamer); err != nil {
		return err
	}

	// Resample streamer to target rate
	resampled := beep.Resample(3, format.SampleRate, p.currentSampleRate, streamer)

	// Wrap in volume control, mapping 0-1 linear volume to beep's
	// exponential scale (base 2)
	volStreamer := &effects.Volume{
		Streamer: resampled,
		Base:     2,
		Volume:   volumeToPower(p.volume),
		Silent:   p.volume <= 0.01,
	}

	p.streamer = volStreamer
	p.trackStreamer = streamer
	p.trackFormat = format

	// Wrap in control for pause/resume
	p.ctrl = &beep.Ctrl{Streamer: volStreamer, Paused: startPaused}
	p.isPaused = startPaused

	// Play with callback to clean up when done
	speaker.Play(beep.Seq(p.ctrl, beep.Callback(func() {
		// Launch goroutine to handle cleanup without blocking the speaker thread
		go func() {
			p.mu.Lock()
			p.ctrl = nil
			p.isPaused = false
			p.mu.Unlock()
			streamer.Close()

			if onComplete != nil {
				onComplete()
			}
		}()
	})))

	p.lastPlayedFile = filepath

	if startPaused {
		slog.Info("Loaded audio in PAUSED state", "path", filepath)
	} else {
		slog.Debug("Playing audio", "path", filepath)
	}

	return nil
}

// Pause pauses current playback.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Paused = true
		speaker.Unlock()
		p.isPaused = true
	}
}

// Resume resumes paused playback.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl != nil && p.isPaused {
		speaker.Lock()
		p.ctrl.Paused = false
		speaker.Unlock()
		p.isPaused = false
	}
}

// Stop stops current playback.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.trackStreamer != nil {
		p.trackStreamer.Close()
		p.trackStreamer = nil
	}
	if p.ctrl != nil {
		speaker.Clear()
		p.ctrl = nil
		p.isPaused = false
	}
}

func (p *Player) ensureSpeakerInitialized(streamer beep.StreamSeekCloser) error {
	const targetSampleRate = 48000
	if !p.speakerInitialized {
		err := speaker.Init(beep.SampleRate(targetSampleRate), beep.SampleRate(targetSampleRate).N(time.Second/10))
		if err != nil {
			streamer.Close()
			slog.Error("Failed to initialize speaker", "error", err)
			return err
		}
		p.speakerInitialized = true
		p.currentSampleRate = beep.SampleRate(targetSampleRate)
	}
	return nil
}

// IsPlaying returns true if audio is currently playing.
func (p *Player) IsPlaying() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ctrl != nil && !p.isPaused
}

// IsBusy returns true if audio is loaded (playing or paused).
func (p *Player) IsBusy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ctrl != nil
}

// IsPaused returns true if playback is paused.
func (p *Player) IsPaused() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isPaused
}

// SetVolume sets playback volume (0.0 to 1.0).
func (p *Player) SetVolume(vol float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if vol < 0 {
		vol = 0
	} else if vol > 1 {
		vol = 1
	}
	p.volume = vol

	// Update live streamer if playing
	if p.streamer != nil {
		speaker.Lock()
		p.streamer.Volume = volumeToPower(vol)
		p.streamer.Silent = vol <= 0.01
		speaker.Unlock()
	}
}

// Volume returns current volume level.
func (p *Player) Volume() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.volume
}

// LastPlayedFile returns the path of the last played clip.
func (p *Player) LastPlayedFile() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastPlayedFile
}

// Replay replays the last clip.
func (p *Player) Replay(onComplete func()) bool {
	p.mu.RLock()
	lastFile := p.lastPlayedFile
	p.mu.RUnlock()

	if lastFile == "" {
		return false
	}

	if _, err := os.Stat(lastFile); os.IsNotExist(err) {
		return false
	}

	return p.Play(lastFile, false, onComplete) == nil
}

// Position returns the current playback position.
func (p *Player) Position() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.trackStreamer == nil || p.trackFormat.SampleRate == 0 {
		return 0
	}
	return p.trackFormat.SampleRate.D(p.trackStreamer.Position())
}

// Duration returns the total duration of the current audio.
func (p *Player) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.trackStreamer == nil || p.trackFormat.SampleRate == 0 {
		return 0
	}
	return p.trackFormat.SampleRate.D(p.trackStreamer.Len())
}

// Remaining returns the remaining time of the current playback.
func (p *Player) Remaining() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.trackStreamer == nil || p.trackFormat.SampleRate == 0 {
		return 0
	}
	remainingSamples := p.trackStreamer.Len() - p.trackStreamer.Position()
	if remainingSamples < 0 {
		return 0
	}
	return p.trackFormat.SampleRate.D(remainingSamples)
}

func (p *Player) decodeStreamer(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		slog.Error("Failed to open audio file", "path", path, "error", err)
		return nil, beep.Format{}, err
	}

	// Try MP3 first
	streamer, format, err := mp3.Decode(f)
	if err == nil {
		return streamer, format, nil
	}

	// Reopen file for WAV attempt (MP3 decode failure might leave file state uncertain)
	f.Close()
	f, err = os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}
	defer func() {
		if err != nil {
			f.Close()
		}
	}()

	streamer, format, err = wav.Decode(f)
	if err != nil {
		slog.Error("Failed to decode audio file", "path", path, "error", err)
		return nil, beep.Format{}, err
	}
	return streamer, format, nil
}

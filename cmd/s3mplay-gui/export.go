package main

import (
	"time"

	"github.com/olivierh59500/s3m-player/pkg/audio"
	"github.com/olivierh59500/s3m-player/pkg/config"
	"github.com/olivierh59500/s3m-player/pkg/mixer"
	"github.com/olivierh59500/s3m-player/pkg/st3"
)

// exportLimit caps exports of songs that never wrap.
const exportLimit = 20 * time.Minute

// exportWAV renders song from its first order into a stereo WAV file on a
// private session, so playback is not disturbed. progress receives the
// position in the order list as a fraction. It returns the frame count.
func exportWAV(song *st3.Song, filename string, cfg config.Config, limit time.Duration, progress func(float64)) (int64, error) {
	mix := mixer.New(cfg.Rate)
	mix.SetDCFilter(cfg.DCFilter)
	sess := st3.NewSession(mix, cfg.Rate)
	sess.SetMixingVolume(cfg.Volume)
	sess.Load(song)
	if err := sess.Play(0); err != nil {
		return 0, err
	}

	out := audio.NewWAVOutput(filename)
	if err := out.Open(cfg.Rate, 2, cfg.Buffer); err != nil {
		return 0, err
	}

	orders := max(int(song.Header.OrderCount), 1)
	maxFrames := int64(limit.Seconds() * float64(cfg.Rate))
	buf := make([]int16, cfg.Buffer*2)
	done := 0.0
	for out.Frames() < maxFrames && sess.Loops() == 0 && !sess.Ended() {
		sess.Render(buf)
		if err := out.Write(buf); err != nil {
			out.Close()
			return out.Frames(), err
		}
		// backward jumps move the order down; progress only grows
		done = max(done, min(float64(sess.Position().Order)/float64(orders), 1))
		if progress != nil {
			progress(done)
		}
	}
	if progress != nil {
		progress(1)
	}
	frames := out.Frames()
	return frames, out.Close()
}

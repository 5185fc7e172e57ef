package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/olivierh59500/s3m-player/pkg/st3"
)

// status is what the one-line display shows.
type status struct {
	order, orders int
	pattern, row  int
	card          st3.SoundCard
	pcm, fm       int
	fmUsed        bool
	paused        bool
}

func (s status) String() string {
	line := fmt.Sprintf(" Pos: %03d/%03d - Pat: %02d - Row: %02d/64", s.order, s.orders, s.pattern, s.row)
	if s.card == st3.CardGUS {
		line += fmt.Sprintf(" - Active GUS voices: %02d", s.pcm)
	} else {
		line += fmt.Sprintf(" - Active ST3 PCM voices: %02d/16", s.pcm)
	}
	if s.fmUsed {
		line += fmt.Sprintf(" - Active AdLib voices: %01d/9", s.fm)
	}
	if s.paused {
		return line + " (PAUSED)"
	}
	return line + "         "
}

func currentStatus(sess *st3.Session) status {
	pos := sess.Position()
	pcm, fm := sess.ActiveVoices()
	return status{
		order:   pos.Order + 1,
		orders:  int(sess.Song().Header.OrderCount),
		pattern: pos.Pattern,
		row:     pos.Row,
		card:    sess.Card(),
		pcm:     pcm,
		fm:      fm,
		fmUsed:  sess.FMUsed(),
		paused:  !sess.Playing(),
	}
}

// showStatus redraws the status line until ctx ends. Without loop it calls
// done once the song has wrapped.
func showStatus(ctx context.Context, w io.Writer, sess *st3.Session, loop bool, done func()) error {
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()

	fmt.Fprintf(w, "- STATUS -\n")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		fmt.Fprintf(w, "%s\r", currentStatus(sess))
		if sess.Ended() || (!loop && sess.Loops() > 0) {
			done()
			return nil
		}
	}
}

func printInfo(w io.Writer, song *st3.Song, sess *st3.Session, opts options) {
	h := &song.Header
	fmt.Fprintf(w, "Name: %s\n", h.Name)
	fmt.Fprintf(w, "Instruments: %d/99\n", h.InstrumentCount)
	fmt.Fprintf(w, "Song length: %d/255\n", h.OrderCount)
	if sess.Card() == st3.CardGUS {
		fmt.Fprintf(w, "Sound card: %s\n", sess.Card())
	} else {
		fmt.Fprintf(w, "Sound card: %s (%s)\n", sess.Card(), stereoName(sess.Stereo()))
	}
	fmt.Fprintf(w, "Audio output frequency: %dHz\n", opts.Rate)
	fmt.Fprintf(w, "ST3 stereo mode: %s\n", yesNo(h.Stereo()))
	fmt.Fprintf(w, "\n")
	if !opts.renderWAV {
		fmt.Fprintf(w, "Controls:\n")
		fmt.Fprintf(w, "Esc=Quit   Space=Toggle Pause   Plus = inc. song pos   Minus = dec. song pos\n\n")
	}
}

func stereoName(stereo bool) string {
	if stereo {
		return "stereo"
	}
	return "mono"
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

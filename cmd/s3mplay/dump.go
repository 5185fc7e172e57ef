package main

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"

	"github.com/olivierh59500/s3m-player/pkg/mixer"
	"github.com/olivierh59500/s3m-player/pkg/st3"
)

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// dump plays the first ticks of song into a Recorder and prints the
// header and the recorded parameter stream.
func dump(w io.Writer, song *st3.Song, ticks, rate int) {
	rec := mixer.NewRecorder()
	sess := st3.NewSession(rec, rate)
	sess.Load(song)
	if err := sess.Play(0); err != nil {
		fmt.Fprintf(w, "play: %v\n", err)
		return
	}
	for i := 0; i < ticks; i++ {
		sess.Tick()
	}

	dumpConfig.Fdump(w, song.Header)
	fmt.Fprintf(w, "mode: %s, note rate %d Hz, stereo %v\n", rec.Mode.Card, rec.Mode.NoteRate, rec.Mode.Stereo)
	for i, t := range rec.Ticks {
		fmt.Fprintf(w, "tick %d\n", i)
		dumpConfig.Fdump(w, t)
	}
}

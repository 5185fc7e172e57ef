package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/sqweek/dialog"
	"golang.org/x/sync/errgroup"

	"github.com/olivierh59500/s3m-player/pkg/audio"
	"github.com/olivierh59500/s3m-player/pkg/config"
	"github.com/olivierh59500/s3m-player/pkg/mixer"
	"github.com/olivierh59500/s3m-player/pkg/script"
	"github.com/olivierh59500/s3m-player/pkg/st3"
)

var logger *log.Logger

// options is the merged result of the config file and the command line.
type options struct {
	config.Config
	card       st3.SoundCard
	renderWAV  bool
	maxTime    time.Duration
	watch      bool
	dumpTicks  int
	scriptFile string
	verbose    bool
	args       []string
}

func parseOptions(args []string) (options, error) {
	var opts options

	fs := pflag.NewFlagSet("s3mplay", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: s3mplay [options] <module.s3m>\n\n")
		fmt.Fprintf(os.Stderr, "Scream Tracker 3 module player\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	def := config.Default()
	configPath := fs.String("config", config.Path(), "settings file")
	rate := fs.IntP("rate", "f", def.Rate, "output frequency in Hz (8000..384000)")
	volume := fs.IntP("volume", "m", def.Volume, "mixing volume (0..256)")
	card := fs.StringP("soundcard", "s", def.SoundCard, "sound card: auto, sb or gus")
	buffer := fs.IntP("buffer", "b", def.Buffer, "mixing buffer size in frames (256..8192)")
	output := fs.StringP("output", "o", def.Output, "audio output: oto or null")
	loop := fs.Bool("loop", def.Loop, "keep playing after the song wraps")
	dc := fs.Bool("dc-filter", def.DCFilter, "remove DC offset from the mix")
	fs.BoolVar(&opts.renderWAV, "render-to-wav", false, "render to <module>.wav instead of playing")
	fs.DurationVar(&opts.maxTime, "max-time", 20*time.Minute, "longest WAV render")
	fs.BoolVar(&opts.watch, "watch", false, "reload the module when the file changes")
	fs.IntVar(&opts.dumpTicks, "dump", 0, "print the backend parameters of the first n ticks and exit")
	fs.StringVar(&opts.scriptFile, "script", "", "Lua control script to run during playback")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "report repaired module data")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return opts, err
	}
	if fs.Changed("rate") {
		cfg.Rate = *rate
	}
	if fs.Changed("volume") {
		cfg.Volume = *volume
	}
	if fs.Changed("soundcard") {
		cfg.SoundCard = *card
	}
	if fs.Changed("buffer") {
		cfg.Buffer = *buffer
	}
	if fs.Changed("output") {
		cfg.Output = *output
	}
	if fs.Changed("loop") {
		cfg.Loop = *loop
	}
	if fs.Changed("dc-filter") {
		cfg.DCFilter = *dc
	}

	var ok bool
	if opts.card, ok = st3.ParseSoundCard(cfg.SoundCard); !ok {
		return opts, fmt.Errorf("unknown sound card %q", cfg.SoundCard)
	}
	cfg.Clamp()
	opts.Config = cfg
	opts.args = fs.Args()
	return opts, nil
}

func main() {
	logger = log.New(os.Stderr, "s3mplay: ", log.Ltime)

	opts, err := parseOptions(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		logger.Fatalf("%v", err)
	}

	path, err := choosePath(opts.args)
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			logger.Printf("no module selected")
			os.Exit(1)
		}
		logger.Fatalf("failed to determine module path: %v", err)
	}

	song, err := loadSong(path, opts)
	if err != nil {
		logger.Fatalf("failed to load %s: %v", path, err)
	}

	if opts.dumpTicks > 0 {
		dump(os.Stdout, song, opts.dumpTicks, opts.Rate)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mix := mixer.New(opts.Rate)
	mix.SetDCFilter(opts.DCFilter)
	sess := st3.NewSession(mix, opts.Rate)
	sess.SetLogger(logger)
	sess.SetMixingVolume(opts.Volume)
	sess.Load(song)
	if err := sess.Play(0); err != nil {
		logger.Fatalf("failed to start playback: %v", err)
	}

	printInfo(os.Stdout, song, sess, opts)

	if opts.renderWAV {
		name := wavName(path)
		fmt.Printf("Rendering to %s. Press Ctrl+C to stop...\n", name)
		frames, err := renderWAV(ctx, sess, name, opts.Rate, opts.Buffer, opts.maxTime)
		if err != nil {
			logger.Fatalf("WAV render failed: %v", err)
		}
		fmt.Printf("Wrote %s of audio\n", time.Duration(frames)*time.Second/time.Duration(opts.Rate))
		return
	}

	if err := play(ctx, sess, path, opts); err != nil {
		logger.Fatalf("%v", err)
	}
	fmt.Printf("\nPlayback stopped.\n")
}

func loadSong(path string, opts options) (*st3.Song, error) {
	lo := &st3.LoadOptions{Card: opts.card}
	if opts.verbose {
		lo.Notes = func(msg string) { logger.Printf("%s: %s", filepath.Base(path), msg) }
	}
	return st3.LoadFile(path, lo)
}

// play runs the audio output, the keyboard, the status line and the
// optional watcher and script until the user quits or the song ends.
func play(ctx context.Context, sess *st3.Session, path string, opts options) error {
	out := openOutput(opts.Output)
	player := audio.NewPlayer(sess, out)
	player.OnError(func(err error) { logger.Printf("audio write error: %v", err) })
	if err := player.Start(opts.Rate, opts.Buffer); err != nil {
		logger.Printf("failed to open audio output (%v), falling back to timing-based output", err)
		fallback, _ := audio.NewFallbackOutput()
		player = audio.NewPlayer(sess, fallback)
		if err := player.Start(opts.Rate, opts.Buffer); err != nil {
			return fmt.Errorf("failed to start audio: %w", err)
		}
	}
	defer player.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	keys, restore := startKeyboard()
	defer restore()

	g.Go(func() error {
		return handleKeys(ctx, keys, sess, cancel)
	})
	g.Go(func() error {
		return showStatus(ctx, os.Stdout, sess, opts.Loop, cancel)
	})
	if opts.watch {
		g.Go(func() error {
			return watchFile(ctx, path, func() error {
				song, err := loadSong(path, opts)
				if err != nil {
					return err
				}
				sess.Load(song)
				return sess.Play(0)
			})
		})
	}
	if opts.scriptFile != "" {
		g.Go(func() error {
			r := script.NewRunner(sess)
			r.SetLogger(logger)
			if err := r.RunFile(ctx, opts.scriptFile); err != nil && ctx.Err() == nil {
				logger.Printf("%v", err)
			}
			return nil
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func openOutput(name string) audio.Output {
	if name == "null" {
		out, _ := audio.NewFallbackOutput()
		return out
	}
	out, err := audio.NewStreamingOtoOutput()
	if err != nil {
		logger.Printf("failed to create audio output (%v), falling back to timing-based output", err)
		fallback, _ := audio.NewFallbackOutput()
		return fallback
	}
	return out
}

// choosePath returns the module path from the arguments or a file dialog.
func choosePath(args []string) (string, error) {
	if len(args) > 0 {
		return filepath.Abs(args[0])
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	path, err := dialog.
		File().
		Title("Open Scream Tracker 3 module").
		Filter("Scream Tracker 3 modules (*.s3m)", "s3m").
		Filter("LHA archives (*.lha, *.lzh)", "lha", "lzh").
		SetStartDir(cwd).
		Load()
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", dialog.ErrCancelled
	}
	return filepath.Abs(path)
}

// wavName is the render target for a module: its name with .wav appended.
func wavName(path string) string {
	return path + ".wav"
}

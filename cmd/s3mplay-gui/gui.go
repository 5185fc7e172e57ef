//go:build gui

package main

import (
	"fmt"
	"image/color"
	"log"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/olivierh59500/s3m-player/pkg/audio"
	"github.com/olivierh59500/s3m-player/pkg/config"
	"github.com/olivierh59500/s3m-player/pkg/mixer"
	"github.com/olivierh59500/s3m-player/pkg/st3"
)

// S3MPlayerGUI is the desktop front end. Widget callbacks run on the fyne
// main goroutine; the status poller hands its results back with fyne.Do.
type S3MPlayerGUI struct {
	app    fyne.App
	window fyne.Window
	cfg    config.Config

	sess        *st3.Session
	player      *audio.Player
	playing     bool
	currentFile string

	// Playlist
	playlist       *Playlist
	currentIndex   int
	selected       int
	playlistWidget *widget.List
	shuffle        bool
	repeatMode     RepeatMode
	rng            *rand.Rand

	// UI Elements
	titleLabel    *widget.Label
	cardLabel     *widget.Label
	infoLabel     *widget.Label
	positionLabel *widget.Label
	tempoLabel    *widget.Label
	voicesLabel   *widget.Label
	progressBar   *widget.ProgressBar
	volumeSlider  *widget.Slider
	playButton    *widget.Button
	pauseButton   *widget.Button
	stopButton    *widget.Button
	prevButton    *widget.Button
	nextButton    *widget.Button
	rewindButton  *widget.Button
	forwardButton *widget.Button
	repeatButton  *widget.Button
	statusLabel   *widget.Label

	// Playlist UI
	removeButton   *widget.Button
	moveUpButton   *widget.Button
	moveDownButton *widget.Button
	playlistLabel  *widget.Label

	done chan struct{}

	exportMu  sync.Mutex
	exporting bool
}

// RepeatMode defines playlist repeat behavior
type RepeatMode int

const (
	RepeatNone RepeatMode = iota
	RepeatOne
	RepeatAll
)

func (r RepeatMode) String() string {
	switch r {
	case RepeatOne:
		return "Repeat: One"
	case RepeatAll:
		return "Repeat: All"
	}
	return "Repeat: Off"
}

// trackerTheme borrows the blue and amber of the tracker's own screens.
type trackerTheme struct{}

func (trackerTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return color.NRGBA{R: 14, G: 20, B: 44, A: 255}
	case theme.ColorNameButton:
		return color.NRGBA{R: 30, G: 42, B: 84, A: 255}
	case theme.ColorNameForeground:
		return color.NRGBA{R: 222, G: 226, B: 238, A: 255}
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 255, G: 176, B: 32, A: 255}
	case theme.ColorNameHover:
		return color.NRGBA{R: 46, G: 60, B: 112, A: 255}
	case theme.ColorNameInputBackground:
		return color.NRGBA{R: 22, G: 30, B: 62, A: 255}
	case theme.ColorNameScrollBar:
		return color.NRGBA{R: 70, G: 84, B: 140, A: 255}
	}
	return theme.DefaultTheme().Color(name, theme.VariantDark)
}

func (trackerTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (trackerTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (trackerTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNamePadding {
		return 6
	}
	return theme.DefaultTheme().Size(name)
}

// NewS3MPlayerGUI builds the window and its playback session.
func NewS3MPlayerGUI() *S3MPlayerGUI {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Printf("Ignoring settings file: %v", err)
		cfg = config.Default()
	}

	mix := mixer.New(cfg.Rate)
	mix.SetDCFilter(cfg.DCFilter)
	sess := st3.NewSession(mix, cfg.Rate)
	sess.SetMixingVolume(cfg.Volume)

	p := &S3MPlayerGUI{
		app:          app.New(),
		cfg:          cfg,
		sess:         sess,
		playlist:     NewPlaylist("Default"),
		currentIndex: -1,
		selected:     -1,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		done:         make(chan struct{}),
	}
	if cfg.Loop {
		p.repeatMode = RepeatOne
	}

	p.app.Settings().SetTheme(trackerTheme{})
	p.createUI()
	return p
}

func (p *S3MPlayerGUI) createUI() {
	p.window = p.app.NewWindow("S3M Player - Scream Tracker 3")
	p.window.Resize(fyne.NewSize(900, 600))

	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Add Files...", p.addFiles),
		fyne.NewMenuItem("Add Folder...", p.addFolder),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Playlist...", p.savePlaylist),
		fyne.NewMenuItem("Load Playlist...", p.loadPlaylist),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Current to WAV...", p.exportCurrent),
	)
	playlistMenu := fyne.NewMenu("Playlist",
		fyne.NewMenuItem("Clear All", p.clearPlaylist),
		fyne.NewMenuItem("Sort by Title", func() { p.sortPlaylist(SortByTitle) }),
		fyne.NewMenuItem("Sort by Sound Card", func() { p.sortPlaylist(SortByCard) }),
		fyne.NewMenuItem("Sort by Length", func() { p.sortPlaylist(SortByOrders) }),
		fyne.NewMenuItem("Sort by Path", func() { p.sortPlaylist(SortByPath) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Shuffle", p.shufflePlaylist),
	)
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", p.showAbout),
	)
	p.window.SetMainMenu(fyne.NewMainMenu(fileMenu, playlistMenu, helpMenu))

	split := container.NewHSplit(p.createMainContent(), p.createPlaylistContent())
	split.SetOffset(0.6)

	p.window.SetContent(split)
	p.window.SetOnClosed(p.cleanup)

	go p.pollStatus()
}

func (p *S3MPlayerGUI) createMainContent() fyne.CanvasObject {
	p.titleLabel = widget.NewLabel("No module loaded")
	p.titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	p.cardLabel = widget.NewLabel("")
	p.infoLabel = widget.NewLabel("")
	infoCard := widget.NewCard("Now Playing", "", container.NewVBox(
		p.titleLabel,
		p.cardLabel,
		p.infoLabel,
	))

	p.progressBar = widget.NewProgressBar()
	p.positionLabel = widget.NewLabel("Order ---/--- - Pattern -- - Row --/64")
	p.positionLabel.Alignment = fyne.TextAlignCenter
	p.tempoLabel = widget.NewLabel("")
	p.tempoLabel.Alignment = fyne.TextAlignCenter
	p.voicesLabel = widget.NewLabel("")
	p.voicesLabel.Alignment = fyne.TextAlignCenter

	p.prevButton = widget.NewButtonWithIcon("", theme.MediaSkipPreviousIcon(), p.playPrevious)
	p.rewindButton = widget.NewButtonWithIcon("", theme.MediaFastRewindIcon(), func() { p.seek(-1) })
	p.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), p.play)
	p.pauseButton = widget.NewButtonWithIcon("", theme.MediaPauseIcon(), p.pause)
	p.stopButton = widget.NewButtonWithIcon("", theme.MediaStopIcon(), p.stop)
	p.forwardButton = widget.NewButtonWithIcon("", theme.MediaFastForwardIcon(), func() { p.seek(1) })
	p.nextButton = widget.NewButtonWithIcon("", theme.MediaSkipNextIcon(), p.playNext)
	for _, b := range []*widget.Button{p.prevButton, p.rewindButton, p.playButton, p.pauseButton, p.stopButton, p.forwardButton, p.nextButton} {
		b.Disable()
	}
	buttons := container.NewHBox(
		layout.NewSpacer(),
		p.prevButton, p.rewindButton, p.playButton, p.pauseButton, p.stopButton, p.forwardButton, p.nextButton,
		layout.NewSpacer(),
	)

	p.volumeSlider = widget.NewSlider(0, st3.MaxMixVolume)
	p.volumeSlider.Step = 1
	p.volumeSlider.Value = float64(p.cfg.Volume)
	volumeLabel := widget.NewLabel(fmt.Sprintf("%d", p.cfg.Volume))
	p.volumeSlider.OnChanged = func(v float64) {
		p.sess.SetMixingVolume(int(v))
		volumeLabel.SetText(fmt.Sprintf("%d", int(v)))
	}
	volume := container.NewBorder(nil, nil,
		container.NewHBox(widget.NewIcon(theme.VolumeUpIcon()), widget.NewLabel("Volume:")),
		volumeLabel,
		p.volumeSlider,
	)

	shuffleCheck := widget.NewCheck("Shuffle", func(checked bool) { p.shuffle = checked })
	p.repeatButton = widget.NewButton(p.repeatMode.String(), p.toggleRepeatMode)
	options := container.NewHBox(shuffleCheck, p.repeatButton)

	p.statusLabel = widget.NewLabel("Ready")
	statusBar := container.NewBorder(widget.NewSeparator(), nil, nil, p.statusLabel, nil)

	return container.NewPadded(container.NewVBox(
		infoCard,
		widget.NewSeparator(),
		p.progressBar,
		p.positionLabel,
		p.tempoLabel,
		p.voicesLabel,
		buttons,
		widget.NewSeparator(),
		volume,
		options,
		layout.NewSpacer(),
		statusBar,
	))
}

func (p *S3MPlayerGUI) createPlaylistContent() fyne.CanvasObject {
	p.playlistLabel = widget.NewLabel("Playlist (0 items)")
	p.playlistLabel.TextStyle = fyne.TextStyle{Bold: true}

	p.playlistWidget = widget.NewList(
		func() int {
			return p.playlist.Size()
		},
		func() fyne.CanvasObject {
			title := widget.NewLabel("")
			title.Truncation = fyne.TextTruncateEllipsis
			return container.NewBorder(nil, nil, nil, widget.NewLabel(""), title)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			box := obj.(*fyne.Container)
			title := box.Objects[0].(*widget.Label)
			card := box.Objects[1].(*widget.Label)

			item, err := p.playlist.Get(id)
			if err != nil {
				return
			}
			title.SetText(item.Title)
			card.SetText(cardShortName(item.Card))
			title.TextStyle = fyne.TextStyle{Bold: id == p.currentIndex}
			title.Refresh()
		},
	)
	p.playlistWidget.OnSelected = func(id widget.ListItemID) {
		p.selected = id
		p.removeButton.Enable()
		p.moveUpButton.Enable()
		p.moveDownButton.Enable()
		if id != p.currentIndex || !p.playing {
			p.playFromIndex(id)
		}
	}
	p.playlistWidget.OnUnselected = func(widget.ListItemID) {
		p.selected = -1
		p.removeButton.Disable()
		p.moveUpButton.Disable()
		p.moveDownButton.Disable()
	}

	addButton := widget.NewButtonWithIcon("Add", theme.ContentAddIcon(), p.addFiles)
	p.removeButton = widget.NewButtonWithIcon("Remove", theme.ContentRemoveIcon(), p.removeSelected)
	clearButton := widget.NewButtonWithIcon("Clear", theme.DeleteIcon(), p.clearPlaylist)
	p.moveUpButton = widget.NewButtonWithIcon("", theme.MoveUpIcon(), p.moveSelectedUp)
	p.moveDownButton = widget.NewButtonWithIcon("", theme.MoveDownIcon(), p.moveSelectedDown)
	p.removeButton.Disable()
	p.moveUpButton.Disable()
	p.moveDownButton.Disable()

	buttonBar := container.NewHBox(
		addButton, p.removeButton, clearButton,
		layout.NewSpacer(),
		p.moveUpButton, p.moveDownButton,
	)

	return widget.NewCard("", "", container.NewBorder(
		container.NewVBox(p.playlistLabel, widget.NewSeparator()),
		buttonBar,
		nil, nil,
		container.NewScroll(p.playlistWidget),
	))
}

// playerStatus is a snapshot of the session taken off the UI goroutine.
type playerStatus struct {
	pos     st3.Position
	orders  int
	pcm, fm int
	card    st3.SoundCard
	fmUsed  bool
	running bool
	loops   int
	ended   bool
}

func (p *S3MPlayerGUI) pollStatus() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			song := p.sess.Song()
			if song == nil {
				continue
			}
			st := playerStatus{
				pos:     p.sess.Position(),
				orders:  int(song.Header.OrderCount),
				card:    p.sess.Card(),
				fmUsed:  p.sess.FMUsed(),
				running: p.sess.Playing(),
				loops:   p.sess.Loops(),
				ended:   p.sess.Ended(),
			}
			st.pcm, st.fm = p.sess.ActiveVoices()
			fyne.Do(func() { p.applyStatus(st) })
		case <-p.done:
			return
		}
	}
}

func (p *S3MPlayerGUI) applyStatus(st playerStatus) {
	if !p.playing {
		return
	}

	if st.orders > 0 {
		p.progressBar.SetValue(min(float64(max(st.pos.Order, 0))/float64(st.orders), 1))
	}
	p.positionLabel.SetText(fmt.Sprintf("Order %03d/%03d - Pattern %02d - Row %02d/64",
		max(st.pos.Order, 0), st.orders, st.pos.Pattern, st.pos.Row))
	p.tempoLabel.SetText(fmt.Sprintf("Speed %d - Tempo %d", st.pos.Speed, st.pos.Tempo))

	voices := fmt.Sprintf("Active GUS voices: %02d", st.pcm)
	if st.card == st3.CardSBPro {
		voices = fmt.Sprintf("Active PCM voices: %02d/%d", st.pcm, st3.PCMChannels)
	}
	if st.fmUsed {
		voices += fmt.Sprintf(" - Active AdLib voices: %d/%d", st.fm, st3.FMChannels)
	}
	p.voicesLabel.SetText(voices)

	if st.running {
		p.statusLabel.SetText("Playing")
	} else {
		p.statusLabel.SetText("Paused")
	}

	switch {
	case st.ended && p.repeatMode == RepeatOne:
		p.sess.Play(0)
	case st.ended, st.loops > 0 && p.repeatMode != RepeatOne:
		p.trackFinished()
	}
}

func (p *S3MPlayerGUI) addFiles() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		p.addFileToPlaylist(reader.URI().Path())
	}, p.window)
}

func (p *S3MPlayerGUI) addFolder() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}

		files, err := uri.List()
		if err != nil {
			dialog.ShowError(err, p.window)
			return
		}

		added := 0
		for _, file := range files {
			if isModuleFile(file.Name()) && p.addFileToPlaylist(file.Path()) {
				added++
			}
		}
		if added > 0 {
			dialog.ShowInformation("Files Added",
				fmt.Sprintf("Added %d modules to playlist", added), p.window)
		}
	}, p.window)
}

// addFileToPlaylist loads path to describe it and appends it to the
// playlist. It reports whether the module was accepted.
func (p *S3MPlayerGUI) addFileToPlaylist(path string) bool {
	song, err := st3.LoadFile(path, &st3.LoadOptions{Card: p.cfg.Card()})
	if err != nil {
		log.Printf("Failed to load %s: %v", path, err)
		return false
	}

	p.playlist.Add(itemFromSong(path, song))
	p.updatePlaylistLabel()
	p.playlistWidget.Refresh()

	if p.currentIndex < 0 {
		p.currentIndex = 0
		p.playButton.Enable()
	}
	return true
}

// loadModule loads path into the session and shows its details.
func (p *S3MPlayerGUI) loadModule(path string) error {
	song, err := st3.LoadFile(path, &st3.LoadOptions{
		Card:  p.cfg.Card(),
		Notes: func(msg string) { log.Printf("%s: %s", filepath.Base(path), msg) },
	})
	if err != nil {
		return err
	}

	p.sess.Load(song)
	p.currentFile = path

	item := itemFromSong(path, song)
	p.titleLabel.SetText(item.Title)
	stereo := "mono"
	if song.Header.Stereo() {
		stereo = "stereo"
	}
	p.cardLabel.SetText(fmt.Sprintf("%s - %s", item.Card, stereo))
	p.infoLabel.SetText(fmt.Sprintf("%d orders - %d instruments - %d channels",
		item.Orders, item.Instruments, item.Channels))
	p.progressBar.SetValue(0)

	for _, b := range []*widget.Button{p.playButton, p.prevButton, p.nextButton} {
		b.Enable()
	}
	return nil
}

// ensureAudio starts the audio player on first use. It keeps running for
// the life of the window; a stopped session renders silence.
func (p *S3MPlayerGUI) ensureAudio() error {
	if p.player != nil {
		return nil
	}

	var out audio.Output
	if p.cfg.Output != "null" {
		if oto, err := audio.NewStreamingOtoOutput(); err == nil {
			out = oto
		}
	}
	if out != nil {
		player := audio.NewPlayer(p.sess, out)
		player.OnError(func(err error) { log.Printf("Audio write error: %v", err) })
		err := player.Start(p.cfg.Rate, p.cfg.Buffer)
		if err == nil {
			p.player = player
			return nil
		}
		log.Printf("Failed to open audio output (%v), falling back to timing-based output", err)
	}

	fallback, _ := audio.NewFallbackOutput()
	player := audio.NewPlayer(p.sess, fallback)
	if err := player.Start(p.cfg.Rate, p.cfg.Buffer); err != nil {
		return fmt.Errorf("failed to start audio: %w", err)
	}
	p.player = player
	return nil
}

func (p *S3MPlayerGUI) play() {
	if !p.sess.IsLoaded() {
		if p.currentIndex >= 0 {
			p.playFromIndex(p.currentIndex)
		}
		return
	}
	if p.playing {
		if !p.sess.Playing() {
			p.pause()
		}
		return
	}

	if err := p.ensureAudio(); err != nil {
		dialog.ShowError(err, p.window)
		return
	}
	if err := p.sess.Play(0); err != nil {
		dialog.ShowError(err, p.window)
		return
	}
	p.playing = true

	p.playButton.Disable()
	for _, b := range []*widget.Button{p.pauseButton, p.stopButton, p.rewindButton, p.forwardButton} {
		b.Enable()
	}
	p.pauseButton.SetIcon(theme.MediaPauseIcon())
}

func (p *S3MPlayerGUI) pause() {
	if !p.playing {
		return
	}
	if p.sess.TogglePause() {
		p.pauseButton.SetIcon(theme.MediaPlayIcon())
		p.statusLabel.SetText("Paused")
	} else {
		p.pauseButton.SetIcon(theme.MediaPauseIcon())
		p.statusLabel.SetText("Playing")
	}
}

func (p *S3MPlayerGUI) stop() {
	p.sess.Stop()
	p.playing = false

	p.progressBar.SetValue(0)
	p.statusLabel.SetText("Ready")
	if p.sess.IsLoaded() {
		p.playButton.Enable()
	}
	for _, b := range []*widget.Button{p.pauseButton, p.stopButton, p.rewindButton, p.forwardButton} {
		b.Disable()
	}
	p.pauseButton.SetIcon(theme.MediaPauseIcon())
}

func (p *S3MPlayerGUI) seek(delta int) {
	if p.playing {
		p.sess.Seek(delta)
	}
}

func (p *S3MPlayerGUI) playFromIndex(index int) {
	item, err := p.playlist.Get(index)
	if err != nil {
		return
	}

	p.stop()
	if err := p.loadModule(item.Path); err != nil {
		dialog.ShowError(err, p.window)
		return
	}
	p.currentIndex = index
	p.play()
	p.playlistWidget.Refresh()
}

// trackFinished moves on once the current module wrapped or ended.
func (p *S3MPlayerGUI) trackFinished() {
	if p.repeatMode == RepeatNone && !p.shuffle && p.currentIndex >= p.playlist.Size()-1 {
		p.stop()
		return
	}
	p.playNext()
}

func (p *S3MPlayerGUI) playNext() {
	n := p.playlist.Size()
	if n == 0 {
		return
	}
	if p.shuffle {
		p.playFromIndex(p.rng.Intn(n))
		return
	}
	p.playFromIndex((p.currentIndex + 1) % n)
}

func (p *S3MPlayerGUI) playPrevious() {
	n := p.playlist.Size()
	if n == 0 {
		return
	}
	prev := p.currentIndex - 1
	if prev < 0 {
		prev = n - 1
	}
	p.playFromIndex(prev)
}

func (p *S3MPlayerGUI) removeSelected() {
	index := p.selected
	if err := p.playlist.Remove(index); err != nil {
		return
	}

	switch {
	case index == p.currentIndex:
		p.stop()
		p.currentIndex = min(index, p.playlist.Size()-1)
	case index < p.currentIndex:
		p.currentIndex--
	}
	p.playlistWidget.UnselectAll()
	p.updatePlaylistLabel()
	p.playlistWidget.Refresh()
	if p.playlist.Size() == 0 {
		p.playButton.Disable()
	}
}

func (p *S3MPlayerGUI) moveSelectedUp() {
	if err := p.playlist.MoveUp(p.selected); err != nil {
		return
	}
	p.followMove(p.selected, p.selected-1)
}

func (p *S3MPlayerGUI) moveSelectedDown() {
	if err := p.playlist.MoveDown(p.selected); err != nil {
		return
	}
	p.followMove(p.selected, p.selected+1)
}

// followMove keeps the current and selected indexes on the items that
// swapped places.
func (p *S3MPlayerGUI) followMove(from, to int) {
	switch p.currentIndex {
	case from:
		p.currentIndex = to
	case to:
		p.currentIndex = from
	}
	p.selected = to
	p.playlistWidget.Refresh()
}

func (p *S3MPlayerGUI) clearPlaylist() {
	dialog.ShowConfirm("Clear Playlist",
		"Are you sure you want to clear the entire playlist?",
		func(ok bool) {
			if !ok {
				return
			}
			p.stop()
			p.playlist.Clear()
			p.currentIndex = -1
			p.playlistWidget.UnselectAll()
			p.updatePlaylistLabel()
			p.playlistWidget.Refresh()
			p.playButton.Disable()
		}, p.window)
}

func (p *S3MPlayerGUI) savePlaylist() {
	dialog.ShowFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()

		path := writer.URI().Path()
		var saveErr error
		if strings.EqualFold(filepath.Ext(path), ".m3u") {
			saveErr = p.playlist.SaveM3U(path)
		} else {
			saveErr = p.playlist.Save(path)
		}
		if saveErr != nil {
			dialog.ShowError(saveErr, p.window)
		}
	}, p.window)
}

func (p *S3MPlayerGUI) loadPlaylist() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()

		path := reader.URI().Path()
		var list *Playlist
		if strings.EqualFold(filepath.Ext(path), ".m3u") {
			list, err = LoadM3U(path)
		} else {
			list, err = LoadPlaylist(path)
		}
		if err != nil {
			dialog.ShowError(err, p.window)
			return
		}

		p.stop()
		p.playlist = list
		p.currentIndex = -1
		p.playlistWidget.UnselectAll()
		p.updatePlaylistLabel()
		p.playlistWidget.Refresh()
		if p.playlist.Size() > 0 {
			p.currentIndex = 0
			p.playButton.Enable()
		}
	}, p.window)
}

func (p *S3MPlayerGUI) sortPlaylist(by SortBy) {
	p.reorder(func() { p.playlist.Sort(by) })
}

func (p *S3MPlayerGUI) shufflePlaylist() {
	p.reorder(func() { p.playlist.Shuffle(p.rng) })
}

// reorder runs fn and then finds the current item again.
func (p *S3MPlayerGUI) reorder(fn func()) {
	var current *PlaylistItem
	if item, err := p.playlist.Get(p.currentIndex); err == nil {
		current = item
	}
	fn()
	for i, item := range p.playlist.Items {
		if item == current {
			p.currentIndex = i
		}
	}
	p.playlistWidget.UnselectAll()
	p.playlistWidget.Refresh()
}

func (p *S3MPlayerGUI) toggleRepeatMode() {
	p.repeatMode = (p.repeatMode + 1) % 3
	p.repeatButton.SetText(p.repeatMode.String())
}

func (p *S3MPlayerGUI) updatePlaylistLabel() {
	p.playlistLabel.SetText(fmt.Sprintf("Playlist (%d items)", p.playlist.Size()))
}

func (p *S3MPlayerGUI) exportCurrent() {
	if p.currentFile == "" {
		dialog.ShowInformation("No module loaded", "Please load a module first", p.window)
		return
	}
	p.exportMu.Lock()
	busy := p.exporting
	p.exportMu.Unlock()
	if busy {
		dialog.ShowInformation("Export running", "Wait for the current export to finish", p.window)
		return
	}

	source := p.currentFile
	save := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		p.startExport(source, writer.URI().Path())
	}, p.window)
	save.SetFileName(filepath.Base(source) + ".wav")
	save.Show()
}

func (p *S3MPlayerGUI) startExport(source, target string) {
	song, err := st3.LoadFile(source, &st3.LoadOptions{Card: p.cfg.Card()})
	if err != nil {
		dialog.ShowError(err, p.window)
		return
	}

	bar := widget.NewProgressBar()
	progress := dialog.NewCustomWithoutButtons("Exporting to WAV", bar, p.window)
	progress.Show()

	p.exportMu.Lock()
	p.exporting = true
	p.exportMu.Unlock()

	go func() {
		frames, err := exportWAV(song, target, p.cfg, exportLimit, func(v float64) {
			fyne.Do(func() { bar.SetValue(v) })
		})

		p.exportMu.Lock()
		p.exporting = false
		p.exportMu.Unlock()

		fyne.Do(func() {
			progress.Hide()
			if err != nil {
				dialog.ShowError(err, p.window)
				return
			}
			length := time.Duration(frames) * time.Second / time.Duration(p.cfg.Rate)
			dialog.ShowInformation("Export Complete",
				fmt.Sprintf("Wrote %s of audio to %s", length.Round(time.Second), filepath.Base(target)), p.window)
		})
	}()
}

func (p *S3MPlayerGUI) showAbout() {
	about := container.NewVBox(
		widget.NewLabelWithStyle("S3M Player", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewLabel("Scream Tracker 3.21 module replayer"),
		widget.NewLabel(""),
		widget.NewLabel("Plays .s3m modules, also from LHA archives"),
		widget.NewLabel("Gravis Ultrasound and Sound Blaster Pro playback modes"),
		widget.NewLabel("AdLib channels are sequenced but not synthesized"),
		widget.NewLabel(""),
		widget.NewLabel(fmt.Sprintf("Output: %d Hz, %d frame buffer", p.cfg.Rate, p.cfg.Buffer)),
		widget.NewLabel("Settings: "+config.Path()),
	)
	dialog.ShowCustom("About S3M Player", "OK", about, p.window)
}

func (p *S3MPlayerGUI) cleanup() {
	close(p.done)
	p.sess.Stop()
	if p.player != nil {
		p.player.Stop()
	}
}

// Run shows the window and blocks until it is closed.
func (p *S3MPlayerGUI) Run() {
	p.window.ShowAndRun()
}

// cardShortName abbreviates a sound card name for the playlist column.
func cardShortName(card string) string {
	switch card {
	case st3.CardGUS.String():
		return "GUS"
	case st3.CardSBPro.String():
		return "SB"
	}
	return card
}

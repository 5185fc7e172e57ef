package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/olivierh59500/s3m-player/pkg/st3"
)

// ErrIndexOutOfRange is returned by the index based playlist operations.
var ErrIndexOutOfRange = errors.New("index out of range")

// PlaylistItem represents a single module in the playlist
type PlaylistItem struct {
	Path        string `json:"path"`
	Title       string `json:"title"`
	Card        string `json:"card,omitempty"`
	Orders      int    `json:"orders,omitempty"`
	Instruments int    `json:"instruments,omitempty"`
	Channels    int    `json:"channels,omitempty"`
}

// Playlist manages a collection of modules
type Playlist struct {
	Name  string          `json:"name"`
	Items []*PlaylistItem `json:"items"`
}

// SortBy selects the key used by Sort.
type SortBy int

const (
	SortByTitle SortBy = iota
	SortByCard
	SortByOrders
	SortByPath
)

// NewPlaylist creates a new empty playlist
func NewPlaylist(name string) *Playlist {
	return &Playlist{
		Name:  name,
		Items: make([]*PlaylistItem, 0),
	}
}

// isModuleFile reports whether name has an extension the loader accepts.
func isModuleFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".s3m", ".lha", ".lzh":
		return true
	}
	return false
}

// itemFromSong describes a loaded song.
func itemFromSong(path string, song *st3.Song) *PlaylistItem {
	item := &PlaylistItem{
		Path:        path,
		Title:       strings.TrimSpace(song.Header.Name),
		Card:        song.Card.String(),
		Orders:      int(song.Header.OrderCount),
		Instruments: int(song.Header.InstrumentCount),
	}
	for _, c := range song.Header.Channels {
		if c < 32 {
			item.Channels++
		}
	}
	if item.Title == "" {
		item.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return item
}

// Add adds a new item to the playlist
func (p *Playlist) Add(item *PlaylistItem) {
	p.Items = append(p.Items, item)
}

// Remove removes an item at the specified index
func (p *Playlist) Remove(index int) error {
	if index < 0 || index >= len(p.Items) {
		return ErrIndexOutOfRange
	}
	p.Items = append(p.Items[:index], p.Items[index+1:]...)
	return nil
}

// MoveUp moves an item up in the playlist
func (p *Playlist) MoveUp(index int) error {
	if index <= 0 || index >= len(p.Items) {
		return fmt.Errorf("cannot move item %d up: %w", index, ErrIndexOutOfRange)
	}
	p.Items[index], p.Items[index-1] = p.Items[index-1], p.Items[index]
	return nil
}

// MoveDown moves an item down in the playlist
func (p *Playlist) MoveDown(index int) error {
	if index < 0 || index >= len(p.Items)-1 {
		return fmt.Errorf("cannot move item %d down: %w", index, ErrIndexOutOfRange)
	}
	p.Items[index], p.Items[index+1] = p.Items[index+1], p.Items[index]
	return nil
}

// Clear removes all items from the playlist
func (p *Playlist) Clear() {
	p.Items = make([]*PlaylistItem, 0)
}

// Size returns the number of items in the playlist
func (p *Playlist) Size() int {
	return len(p.Items)
}

// Get returns the item at the specified index
func (p *Playlist) Get(index int) (*PlaylistItem, error) {
	if index < 0 || index >= len(p.Items) {
		return nil, ErrIndexOutOfRange
	}
	return p.Items[index], nil
}

// Save saves the playlist to a JSON file
func (p *Playlist) Save(filename string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// LoadPlaylist loads a playlist from a JSON file
func LoadPlaylist(filename string) (*Playlist, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var playlist Playlist
	if err := json.Unmarshal(data, &playlist); err != nil {
		return nil, fmt.Errorf("failed to parse playlist %s: %w", filename, err)
	}
	if playlist.Items == nil {
		playlist.Items = make([]*PlaylistItem, 0)
	}
	return &playlist, nil
}

// SaveM3U exports the playlist as extended M3U
func (p *Playlist) SaveM3U(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(file)
	fmt.Fprintln(w, "#EXTM3U")
	fmt.Fprintf(w, "#PLAYLIST:%s\n", p.Name)
	for _, item := range p.Items {
		fmt.Fprintf(w, "#EXTINF:-1,%s\n", item.Title)
		fmt.Fprintln(w, item.Path)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// LoadM3U loads a playlist from M3U. Relative entries are resolved against
// the playlist directory and entries that are not modules are skipped.
func LoadM3U(filename string) (*Playlist, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	playlist := NewPlaylist(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	dir := filepath.Dir(filename)
	title := ""

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#PLAYLIST:"):
			playlist.Name = strings.TrimPrefix(line, "#PLAYLIST:")
			continue
		case strings.HasPrefix(line, "#EXTINF:"):
			if _, t, ok := strings.Cut(line, ","); ok {
				title = t
			}
			continue
		case line[0] == '#':
			continue
		}

		path := filepath.FromSlash(line)
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if isModuleFile(path) {
			if title == "" {
				title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			playlist.Add(&PlaylistItem{Path: path, Title: title})
		}
		title = ""
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read playlist %s: %w", filename, err)
	}
	return playlist, nil
}

// Shuffle randomizes the order of items in the playlist
func (p *Playlist) Shuffle(r *rand.Rand) {
	r.Shuffle(len(p.Items), func(i, j int) {
		p.Items[i], p.Items[j] = p.Items[j], p.Items[i]
	})
}

// Sort sorts the playlist by a specific field, keeping the relative order
// of equal items.
func (p *Playlist) Sort(by SortBy) {
	sort.SliceStable(p.Items, func(i, j int) bool {
		a, b := p.Items[i], p.Items[j]
		switch by {
		case SortByCard:
			return a.Card < b.Card
		case SortByOrders:
			return a.Orders < b.Orders
		case SortByPath:
			return a.Path < b.Path
		default:
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	})
}

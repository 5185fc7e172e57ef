//go:build gui

package main

import (
	"log"
	"os"
	"path/filepath"
)

func main() {
	p := NewS3MPlayerGUI()

	for _, arg := range os.Args[1:] {
		path, err := filepath.Abs(arg)
		if err != nil {
			log.Printf("Failed to resolve %s: %v", arg, err)
			continue
		}
		p.addFileToPlaylist(path)
	}
	if p.playlist.Size() > 0 {
		p.playFromIndex(0)
	}

	p.Run()
}

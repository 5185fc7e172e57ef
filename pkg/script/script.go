// Package script runs Lua control scripts against a playing session.
package script

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/olivierh59500/s3m-player/pkg/st3"
)

// Controller is the part of a session a script may drive.
type Controller interface {
	StartAt(order, row int)
	Stop()
	SetGlobalVolume(v int)
	IsLoaded() bool
	Position() st3.Position
}

// Runner executes scripts. The functions available to a script are
//
//	start_at(order [, row])
//	stop()
//	set_global_volume(v)
//	is_loaded() -> bool
//	position() -> {order, pattern, row, tick, speed, tempo}
//	wait_rows(n)
//	log(msg)
type Runner struct {
	ctl    Controller
	logger *log.Logger
	poll   time.Duration
}

// NewRunner creates a Runner for ctl.
func NewRunner(ctl Controller) *Runner {
	return &Runner{
		ctl:    ctl,
		logger: log.New(io.Discard, "", 0),
		poll:   5 * time.Millisecond,
	}
}

// SetLogger sets where log() output goes.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// RunFile runs the script at path until it returns or ctx is done.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	L := r.newState(ctx)
	defer L.Close()
	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

// RunString runs src until it returns or ctx is done.
func (r *Runner) RunString(ctx context.Context, src string) error {
	L := r.newState(ctx)
	defer L.Close()
	if err := L.DoString(src); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

func (r *Runner) newState(ctx context.Context) *lua.LState {
	L := lua.NewState()
	L.SetContext(ctx)
	for name, fn := range map[string]lua.LGFunction{
		"start_at":          r.startAt,
		"stop":              r.stop,
		"set_global_volume": r.setGlobalVolume,
		"is_loaded":         r.isLoaded,
		"position":          r.position,
		"wait_rows":         r.waitRows,
		"log":               r.log,
	} {
		L.SetGlobal(name, L.NewFunction(fn))
	}
	return L
}

func (r *Runner) startAt(L *lua.LState) int {
	order := L.CheckInt(1)
	row := L.OptInt(2, 0)
	if order < 0 || order > 255 {
		L.ArgError(1, "order out of range")
	}
	r.ctl.StartAt(order, row)
	return 0
}

func (r *Runner) stop(L *lua.LState) int {
	r.ctl.Stop()
	return 0
}

func (r *Runner) setGlobalVolume(L *lua.LState) int {
	r.ctl.SetGlobalVolume(L.CheckInt(1))
	return 0
}

func (r *Runner) isLoaded(L *lua.LState) int {
	L.Push(lua.LBool(r.ctl.IsLoaded()))
	return 1
}

func (r *Runner) position(L *lua.LState) int {
	pos := r.ctl.Position()
	t := L.NewTable()
	L.SetField(t, "order", lua.LNumber(pos.Order))
	L.SetField(t, "pattern", lua.LNumber(pos.Pattern))
	L.SetField(t, "row", lua.LNumber(pos.Row))
	L.SetField(t, "tick", lua.LNumber(pos.Tick))
	L.SetField(t, "speed", lua.LNumber(pos.Speed))
	L.SetField(t, "tempo", lua.LNumber(pos.Tempo))
	L.Push(t)
	return 1
}

// waitRows blocks until the song has moved on n rows. Rows are counted by
// polling, so a row shorter than the poll interval may be missed.
func (r *Runner) waitRows(L *lua.LState) int {
	n := L.CheckInt(1)
	ctx := L.Context()

	last := r.ctl.Position()
	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for n > 0 {
		select {
		case <-ctx.Done():
			L.RaiseError("wait_rows: %v", ctx.Err())
			return 0
		case <-ticker.C:
		}
		pos := r.ctl.Position()
		if pos.Row != last.Row || pos.Order != last.Order {
			n--
			last = pos
		}
	}
	return 0
}

func (r *Runner) log(L *lua.LState) int {
	r.logger.Print(L.CheckString(1))
	return 0
}

package preset

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/framework/debug"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/synth"
)

// Ext is the preset file extension.
const Ext = ".scp"

// ChangeOp describes what happened to a preset file on disk.
type ChangeOp int

const (
	OpAdded ChangeOp = iota
	OpUpdated
	OpRemoved
)

// Change is a preset-library event delivered by the watcher.
type Change struct {
	Name string
	Op   ChangeOp
}

// Library manages a directory of preset files and can watch it for external
// changes, so a browser stays current when files are copied in by hand.
type Library struct {
	dir string
	log *debug.Logger

	watcher *fsnotify.Watcher
	changes chan Change
}

// NewLibrary opens (creating if needed) a preset directory.
func NewLibrary(dir string) (*Library, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create preset directory: %w", err)
	}
	return &Library{dir: dir, log: debug.Default()}, nil
}

// Dir returns the library's directory path.
func (l *Library) Dir() string { return l.dir }

// Path returns the on-disk path for a preset name.
func (l *Library) Path(name string) string {
	return filepath.Join(l.dir, name+Ext)
}

// List returns the preset names in the directory, sorted.
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		base := entry.Name()
		if !strings.HasSuffix(base, Ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(base, Ext))
	}
	sort.Strings(names)
	return names, nil
}

// Save snapshots the engine into a named preset. The file is written whole
// via a buffer so a failed encode never leaves a truncated preset behind.
func (l *Library) Save(name string, e *synth.Engine) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid preset name %q", name)
	}
	var buf bytes.Buffer
	if err := Save(&buf, e); err != nil {
		return err
	}
	if err := os.WriteFile(l.Path(name), buf.Bytes(), 0o644); err != nil {
		return err
	}
	l.log.Info("preset saved: %s", name)
	return nil
}

// Load applies a named preset to the engine.
func (l *Library) Load(name string, e *synth.Engine) error {
	f, err := os.Open(l.Path(name))
	if err != nil {
		return err
	}
	defer f.Close()
	return Load(f, e)
}

// Delete removes a named preset.
func (l *Library) Delete(name string) error {
	return os.Remove(l.Path(name))
}

// Watch starts delivering directory changes on the returned channel until
// Close is called. Only preset files produce events.
func (l *Library) Watch() (<-chan Change, error) {
	if l.watcher != nil {
		return l.changes, nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(l.dir); err != nil {
		w.Close()
		return nil, err
	}
	l.watcher = w
	l.changes = make(chan Change, 64)
	go l.watchLoop()
	return l.changes, nil
}

func (l *Library) watchLoop() {
	defer close(l.changes)
	for {
		select {
		case ev, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			base := filepath.Base(ev.Name)
			if !strings.HasSuffix(base, Ext) {
				continue
			}
			name := strings.TrimSuffix(base, Ext)
			switch {
			case ev.Op&fsnotify.Create != 0:
				l.changes <- Change{Name: name, Op: OpAdded}
			case ev.Op&fsnotify.Write != 0:
				l.changes <- Change{Name: name, Op: OpUpdated}
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				l.changes <- Change{Name: name, Op: OpRemoved}
			}
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.log.Warn("preset watcher: %v", err)
		}
	}
}

// Close stops the watcher. Safe to call when Watch was never started.
func (l *Library) Close() error {
	if l.watcher == nil {
		return nil
	}
	err := l.watcher.Close()
	l.watcher = nil
	return err
}

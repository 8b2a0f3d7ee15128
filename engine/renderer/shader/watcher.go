package shader

import (
	"fmt"
	"sync"

	"github.com/What42Pizza/WGPU-Template/engine/logger"
	"github.com/fsnotify/fsnotify"
)

// watchEntry tracks one shader source file under observation.
type watchEntry struct {
	key        string
	shaderType ShaderType
	onReload   func(Shader)
}

// watcher is the implementation of the Watcher interface.
type watcher struct {
	mu       *sync.Mutex
	fs       *fsnotify.Watcher
	entries  map[string]watchEntry
	done     chan struct{}
	isClosed bool
}

// Watcher observes shader source files on disk and rebuilds their Shader when
// the file changes. A rebuilt shader goes through the same parsing and layout
// validation as the original; a source edit that produces an invalid layout is
// logged and discarded, leaving the previous shader in place.
type Watcher interface {
	// Watch registers a shader source file for observation. The onReload
	// callback receives the freshly parsed Shader after every successful
	// rebuild.
	//
	// Parameters:
	//   - key: the shader key used when rebuilding
	//   - shaderType: the shader type used when rebuilding
	//   - path: the source file path to observe
	//   - onReload: invoked with the rebuilt shader after each change
	//
	// Returns:
	//   - error: an error if the file could not be added to the watch list
	Watch(key string, shaderType ShaderType, path string, onReload func(Shader)) error

	// Close stops the watcher and releases its file system resources.
	//
	// Returns:
	//   - error: an error if the underlying watcher failed to close
	Close() error
}

var _ Watcher = &watcher{}

// NewWatcher creates a shader source watcher and starts its event loop.
//
// Returns:
//   - Watcher: the running watcher
//   - error: an error if the file system notifier could not be created
func NewWatcher() (Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("shader: failed to create file watcher: %w", err)
	}
	w := &watcher{
		mu:      &sync.Mutex{},
		fs:      fs,
		entries: make(map[string]watchEntry),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *watcher) Watch(key string, shaderType ShaderType, path string, onReload func(Shader)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isClosed {
		return fmt.Errorf("shader: watcher already closed")
	}
	if err := w.fs.Add(path); err != nil {
		return fmt.Errorf("shader: failed to watch %q: %w", path, err)
	}
	w.entries[path] = watchEntry{
		key:        key,
		shaderType: shaderType,
		onReload:   onReload,
	}
	return nil
}

func (w *watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isClosed {
		return nil
	}
	w.isClosed = true
	close(w.done)
	return w.fs.Close()
}

// run consumes file system events until the watcher is closed. Editors often
// replace files on save, so both Write and Create count as a change.
func (w *watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case e, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.mu.Lock()
			entry, watched := w.entries[e.Name]
			w.mu.Unlock()
			if !watched {
				continue
			}
			w.rebuild(e.Name, entry)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Warn("shader watcher: %v", err)
		}
	}
}

// rebuild re-parses a changed shader source file and delivers the result.
// NewShader panics on unreadable or invalid source, which here just means the
// edit was rejected; the recover keeps the watcher alive for the next save.
func (w *watcher) rebuild(path string, entry watchEntry) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("shader watcher: rejected %q: %v", path, r)
		}
	}()
	s := NewShader(entry.key, entry.shaderType, path)
	logger.Info("shader watcher: reloaded %q", entry.key)
	if entry.onReload != nil {
		entry.onReload(s)
	}
}

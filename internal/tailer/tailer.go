// Package tailer follows a log file and emits lines as they are appended,
// surviving truncation and rotation.
package tailer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Line is a single line read from the followed file.
type Line struct {
	Text string    // line content without the trailing newline
	Time time.Time // when the line was read
	Err  error     // read or watch failure, Text is empty
}

// Options configures a Tailer.
type Options struct {
	// PollInterval is the fallback polling interval for systems where
	// fsnotify events are unreliable.
	PollInterval time.Duration
	// ReOpen reopens the file when it is rotated away and recreated.
	ReOpen bool
	// FromEnd skips existing content and only emits appended lines.
	FromEnd bool
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() *Options {
	return &Options{
		PollInterval: 250 * time.Millisecond,
		ReOpen:       true,
	}
}

// Tailer watches one file and emits new lines on its Lines channel.
type Tailer struct {
	filePath string
	opts     *Options
	watcher  *fsnotify.Watcher

	file   *os.File
	reader *bufio.Reader
	size   int64

	lines chan Line
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// New creates a Tailer for the given file path. The file must exist.
func New(filePath string, opts *Options) (*Tailer, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", absPath, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	t := &Tailer{
		filePath: absPath,
		opts:     opts,
		watcher:  watcher,
		lines:    make(chan Line, 100),
		done:     make(chan struct{}),
	}

	if err := t.openFile(); err != nil {
		watcher.Close()
		return nil, err
	}
	t.size = info.Size()

	if opts.FromEnd {
		if _, err := t.file.Seek(0, io.SeekEnd); err != nil {
			watcher.Close()
			t.file.Close()
			return nil, fmt.Errorf("seek to end: %w", err)
		}
		t.reader = bufio.NewReader(t.file)
	}

	return t, nil
}

// Lines returns the channel of emitted lines. It is closed when the tailer
// stops.
func (t *Tailer) Lines() <-chan Line {
	return t.lines
}

// Start begins following the file. Existing content from the current
// position is emitted first, then appended lines as they arrive.
func (t *Tailer) Start(ctx context.Context) error {
	// Watch the directory, not the file, so rotation (remove + create) is
	// still observable.
	if err := t.watcher.Add(filepath.Dir(t.filePath)); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}

	go t.run(ctx)
	return nil
}

// Stop stops following and releases resources.
func (t *Tailer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true

	close(t.done)
	t.watcher.Close()
	if t.file != nil {
		t.file.Close()
	}
}

func (t *Tailer) openFile() error {
	file, err := os.Open(t.filePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", t.filePath, err)
	}
	t.file = file
	t.reader = bufio.NewReader(file)
	return nil
}

func (t *Tailer) run(ctx context.Context) {
	defer close(t.lines)

	t.readLines()

	ticker := time.NewTicker(t.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		case event, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			t.handleEvent(event)
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			t.sendLine(Line{Err: fmt.Errorf("watcher error: %w", err)})
		case <-ticker.C:
			t.checkForChanges()
		}
	}
}

func (t *Tailer) handleEvent(event fsnotify.Event) {
	if event.Name != t.filePath {
		return
	}

	switch {
	case event.Has(fsnotify.Write):
		t.readLines()
	case event.Has(fsnotify.Create):
		// File was recreated after rotation.
		if t.opts.ReOpen {
			t.reopen()
		}
	}
	// Remove/Rename/Chmod are ignored; rotation completes with a Create.
}

func (t *Tailer) checkForChanges() {
	info, err := os.Stat(t.filePath)
	if err != nil {
		// Mid-rotation; wait for the file to reappear.
		return
	}

	newSize := info.Size()
	switch {
	case newSize < t.size:
		// Truncated in place (copytruncate rotation).
		t.truncated()
	case newSize > t.size:
		t.size = newSize
		t.readLines()
	}
}

func (t *Tailer) reopen() {
	if t.file != nil {
		t.file.Close()
		t.file = nil
	}

	for i := 0; i < 10; i++ {
		if err := t.openFile(); err == nil {
			if info, err := os.Stat(t.filePath); err == nil {
				t.size = info.Size()
			}
			t.readLines()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.sendLine(Line{Err: fmt.Errorf("reopen %s: file did not reappear", t.filePath)})
}

func (t *Tailer) truncated() {
	if t.file == nil {
		return
	}
	t.file.Seek(0, io.SeekStart)
	t.reader = bufio.NewReader(t.file)
	t.size = 0
	t.readLines()
}

func (t *Tailer) readLines() {
	if t.file == nil || t.reader == nil {
		return
	}

	for {
		line, err := t.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				if len(line) > 0 {
					// Partial line: seek back so it is re-read whole once
					// the rest arrives.
					t.file.Seek(-int64(len(line)), io.SeekCurrent)
					t.reader = bufio.NewReader(t.file)
				}
				return
			}
			t.sendLine(Line{Err: fmt.Errorf("read: %w", err)})
			return
		}

		line = line[:len(line)-1]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}

		t.sendLine(Line{Text: line, Time: time.Now()})
	}
}

func (t *Tailer) sendLine(line Line) {
	select {
	case t.lines <- line:
	case <-t.done:
	}
}

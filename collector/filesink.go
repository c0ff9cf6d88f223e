package collector

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// WriterSink appends every channel's lines to a single io.Writer. It is
// the default sink, pointed at stdout so records can be piped into
// whatever ships logs off the host.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// WriteLine implements LogSink.
func (s *WriterSink) WriteLine(_ context.Context, _ string, line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(line); err != nil {
		return err
	}
	_, err := io.WriteString(s.w, "\n")
	return err
}

// FileSink keeps one append-only file per channel under a single
// directory, named <channel>.log. Files are opened on first use and held
// open until Close.
type FileSink struct {
	dir string

	mu    sync.Mutex
	files map[string]*os.File
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{
		dir:   dir,
		files: make(map[string]*os.File),
	}
}

// WriteLine implements LogSink.
func (s *FileSink) WriteLine(_ context.Context, channel string, line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[channel]
	if !ok {
		var err error
		f, err = os.OpenFile(filepath.Join(s.dir, channel+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open channel %q: %w", channel, err)
		}
		s.files[channel] = f
	}

	if _, err := f.Write(line); err != nil {
		return err
	}
	_, err := f.Write([]byte("\n"))
	return err
}

// Close closes every open channel file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	for _, f := range s.files {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}
	s.files = make(map[string]*os.File)
	return err
}

/*
NAME
  source.go

DESCRIPTION
  Two DataSource implementations: an in-memory source for already-
  complete byte slices, and a growing-file source that lets a Decoder
  keep pace with a file an encoder is still appending to.

LICENSE
  See LICENSE file included with this package.
*/

package qov

import (
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// MemorySource is a DataSource over a complete, fixed in-memory buffer.
type MemorySource struct {
	buf []byte
}

// NewMemorySource wraps buf, which the caller must not mutate afterwards.
func NewMemorySource(buf []byte) *MemorySource {
	return &MemorySource{buf: buf}
}

func (s *MemorySource) TotalSize() (uint64, bool) { return uint64(len(s.buf)), true }

func (s *MemorySource) IsAvailable(offset, length uint64) bool {
	return offset+length <= uint64(len(s.buf))
}

func (s *MemorySource) Read(offset, length uint64) ([]byte, error) {
	if !s.IsAvailable(offset, length) {
		return nil, errors.Wrap(ErrNotYetAvailable, "read past end of memory source")
	}
	out := make([]byte, length)
	copy(out, s.buf[offset:offset+length])
	return out, nil
}

// GrowingFileSource is a DataSource over a file that a writer may still
// be appending to. It uses fsnotify to wake blocked readers on Write
// events instead of busy-polling the file size.
type GrowingFileSource struct {
	f *os.File

	mu     sync.Mutex
	frozen bool
	size   uint64 // only meaningful once frozen

	watcher *fsnotify.Watcher
	changed chan struct{} // signaled (non-blocking) on every watcher event
}

// NewGrowingFileSource opens path for reading and starts watching it for
// writes. Callers must call Close when done.
func NewGrowingFileSource(path string) (*GrowingFileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening growing file source")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "creating fsnotify watcher")
	}
	if err := w.Add(path); err != nil {
		f.Close()
		w.Close()
		return nil, errors.Wrap(err, "watching growing file source")
	}

	s := &GrowingFileSource{f: f, watcher: w, changed: make(chan struct{}, 1)}
	go s.watch()
	return s, nil
}

func (s *GrowingFileSource) watch() {
	for range s.watcher.Events {
		select {
		case s.changed <- struct{}{}:
		default:
		}
	}
	close(s.changed)
}

// Freeze marks the source as final at its current length: TotalSize
// subsequently reports ok == true, letting Decoder.BuildIndex recognize
// end-of-stream instead of waiting for further writes.
func (s *GrowingFileSource) Freeze() error {
	info, err := s.f.Stat()
	if err != nil {
		return errors.Wrap(err, "stat on freeze")
	}
	s.mu.Lock()
	s.frozen = true
	s.size = uint64(info.Size())
	s.mu.Unlock()
	return nil
}

func (s *GrowingFileSource) TotalSize() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return s.size, true
	}
	info, err := s.f.Stat()
	if err != nil {
		return 0, false
	}
	return uint64(info.Size()), false
}

func (s *GrowingFileSource) IsAvailable(offset, length uint64) bool {
	info, err := s.f.Stat()
	if err != nil {
		return false
	}
	return offset+length <= uint64(info.Size())
}

func (s *GrowingFileSource) Read(offset, length uint64) ([]byte, error) {
	if !s.IsAvailable(offset, length) {
		return nil, errors.Wrap(ErrNotYetAvailable, "read past current file length")
	}
	buf := make([]byte, length)
	if _, err := s.f.ReadAt(buf, int64(offset)); err != nil {
		return nil, errors.Wrap(err, "reading growing file source")
	}
	return buf, nil
}

// Wait blocks until a write to the underlying file has been observed (or
// the watcher is closed), satisfying the decoder's Waiter interface.
func (s *GrowingFileSource) Wait() {
	<-s.changed
}

// Close stops the watcher and closes the underlying file.
func (s *GrowingFileSource) Close() error {
	s.watcher.Close()
	return s.f.Close()
}

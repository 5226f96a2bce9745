package git

import (
	"io"
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing/format/packfile"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// progressStorage is a filesystem storage that reports transfer progress
// for every packfile written through it. go-git streams fetched packfiles
// into PackfileWriter, so this is where received objects are counted.
type progressStorage struct {
	*filesystem.Storage
	report ProgressFunc
	logger *slog.Logger
}

func newProgressStorage(st *filesystem.Storage, report ProgressFunc, logger *slog.Logger) *progressStorage {
	return &progressStorage{Storage: st, report: report, logger: logger}
}

// PackfileWriter wraps the storage's packfile writer. The returned writer
// forwards every byte to the storage and, from one goroutine, parses the
// stream to count objects. Close waits for the last report.
func (s *progressStorage) PackfileWriter() (io.WriteCloser, error) {
	dst, err := s.Storage.PackfileWriter()
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	w := &progressWriter{
		pipe:   pw,
		dst:    dst,
		report: s.report,
		logger: s.logger,
		done:   make(chan struct{}),
	}
	go w.consume(pr)
	return w, nil
}

// progressWriter tees a packfile into the storage while scanning it.
type progressWriter struct {
	pipe   *io.PipeWriter
	dst    io.WriteCloser
	report ProgressFunc
	logger *slog.Logger
	done   chan struct{}

	// err is the first error writing to dst; read after done is closed.
	err error
}

func (w *progressWriter) Write(p []byte) (int, error) {
	return w.pipe.Write(p)
}

// Close ends the stream, waits for pending reports and closes the storage
// writer, which indexes the received packfile.
func (w *progressWriter) Close() error {
	_ = w.pipe.Close()
	<-w.done

	closeErr := w.dst.Close()
	if w.err != nil {
		return w.err
	}
	return closeErr
}

// consume copies the stream into dst and reports progress per object. A
// stream the scanner cannot parse is still stored; reporting stops.
func (w *progressWriter) consume(pr *io.PipeReader) {
	defer close(w.done)

	counter := &countingWriter{w: w.dst}
	tee := io.TeeReader(pr, counter)

	last := w.scan(tee, counter)

	if _, err := io.Copy(io.Discard, tee); err != nil {
		w.err = err
		pr.CloseWithError(err)
		return
	}

	if last.TotalObjects > 0 && last.ReceivedBytes != counter.Count() {
		last.ReceivedBytes = counter.Count()
		w.report(last)
	}
}

// scan parses object headers from r and returns the last reported state.
func (w *progressWriter) scan(r io.Reader, counter *countingWriter) Progress {
	scanner := packfile.NewScanner(r)

	_, total, err := scanner.Header()
	if err != nil {
		w.logger.Debug("clone progress unavailable", "error", err)
		return Progress{}
	}

	progress := Progress{TotalObjects: total, ReceivedBytes: counter.Count()}
	w.report(progress)

	for i := uint32(0); i < total; i++ {
		if _, err := scanner.NextObjectHeader(); err != nil {
			w.logger.Debug("stopped clone progress", "objects", i, "error", err)
			return progress
		}
		if _, _, err := scanner.NextObject(io.Discard); err != nil {
			w.logger.Debug("stopped clone progress", "objects", i, "error", err)
			return progress
		}

		progress.ReceivedObjects = i + 1
		progress.ReceivedBytes = counter.Count()
		w.report(progress)
	}

	w.logger.Debug("received packfile objects", "objects", total)
	return progress
}

// countingWriter counts the bytes written through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func (c *countingWriter) Count() int64 {
	return c.n
}

package texfmt

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileSink writes lines to a file. In append mode the lines already in the
// file seed the row sequence, so counter columns continue the numbering.
type FileSink struct {
	*WriterSink
	path string
	file afero.File
	buf  *bufio.Writer
}

// NewFileSink opens path on fs, creating parent directories. When
// appendIfExists is set, output is added after the existing content.
func NewFileSink(fs afero.Fs, path string, appendIfExists bool, opts ...SinkOption) (*FileSink, error) {
	existing := 0
	if appendIfExists {
		n, err := countLines(fs, path)
		if err != nil {
			return nil, err
		}
		existing = n
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendIfExists {
		flag = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := fs.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, err
	}

	o := newSinkOptions(opts)
	buf := bufio.NewWriterSize(f, int(o.bufferSize.Bytes()))
	opts = append(opts, WithStartSequence(existing+o.start))
	return &FileSink{
		WriterSink: NewWriterSink(buf, opts...),
		path:       path,
		file:       f,
		buf:        buf,
	}, nil
}

// Close terminates the last line if configured, flushes and closes the file.
func (s *FileSink) Close() error {
	err := s.WriterSink.Close()
	if ferr := s.buf.Flush(); err == nil {
		err = ferr
	}
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *FileSink) String() string {
	return fmt.Sprintf("FileSink[path=%s rows=%d]", s.path, s.RowSequence())
}

// countLines counts the lines of an existing file. A missing file has none.
// A final line without terminator still counts.
func countLines(fs afero.Fs, path string) (int, error) {
	f, err := fs.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var (
		n        int
		last     byte
		nonEmpty bool
		buf      = make([]byte, 32*1024)
	)
	for {
		read, err := f.Read(buf)
		if read > 0 {
			n += bytes.Count(buf[:read], []byte{'\n'})
			last = buf[read-1]
			nonEmpty = true
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if nonEmpty && last != '\n' {
		n++
	}
	return n, nil
}

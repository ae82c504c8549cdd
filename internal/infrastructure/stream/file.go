package stream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/agentmesh/commandcenter/internal/core/ports"
	"github.com/agentmesh/commandcenter/internal/infrastructure/logger"
)

const maxFrameLine = 4 << 20

// FileSource replays newline-delimited frames from a file, or stdin when path
// is "-". Blank lines are skipped. The end of the file ends the stream.
type FileSource struct {
	path string
	log  *logger.Logger
}

func NewFileSource(path string, log *logger.Logger) *FileSource {
	if log == nil {
		log = logger.NewNop()
	}
	return &FileSource{path: path, log: log}
}

var _ ports.FrameSource = (*FileSource)(nil)

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Dial(ctx context.Context) (ports.FrameConn, error) {
	var rc io.ReadCloser
	if s.path == "-" {
		rc = io.NopCloser(os.Stdin)
	} else {
		f, err := os.Open(s.path)
		if err != nil {
			return nil, fmt.Errorf("open frame file: %w", err)
		}
		rc = f
	}
	s.log.Infow("stream_connected", "source", s.Name(), "path", s.path)
	return NewReaderConn(rc), nil
}

// NewReaderConn adapts a line-oriented reader to a FrameConn.
func NewReaderConn(rc io.ReadCloser) ports.FrameConn {
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64<<10), maxFrameLine)
	return &readerConn{rc: rc, scanner: scanner}
}

type readerConn struct {
	rc      io.ReadCloser
	scanner *bufio.Scanner
	once    sync.Once
	err     error
}

func (c *readerConn) ReadFrame(ctx context.Context) ([]byte, error) {
	for c.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := bytes.TrimSpace(c.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		frame := make([]byte, len(line))
		copy(frame, line)
		return frame, nil
	}
	if err := c.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (c *readerConn) Close() error {
	c.once.Do(func() {
		c.err = c.rc.Close()
	})
	return c.err
}

// Package interactive implements the line-delimited JSON request loop: a
// blocking request/response protocol over standard input and output that
// generates tags for one file per request, from disk or from an inline
// byte buffer carried on the request stream.
package interactive

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Protocol errors. Any of them terminates the session: the loop makes no
// attempt to recover from malformed input.
var (
	ErrInvalidJSON    = errors.New("invalid json")
	ErrMissingCommand = errors.New("command name not found")
	ErrUnknownCommand = errors.New("unknown command name")
	ErrInvalidRequest = errors.New("invalid generate-tags request")
)

// Artifact is the output tag file, opened and closed once per request:
// each request is an independent logical unit of output.
type Artifact interface {
	Open() error
	Close(resize bool) error
}

// Expander resolves a named file from disk through the enumeration engine.
type Expander interface {
	Expand(path string) bool
}

// BufferTagger tags in-memory content attributed to a filename.
type BufferTagger interface {
	TagBuffer(filename string, data []byte) (bool, error)
}

// Warner reports recoverable per-request problems.
type Warner interface {
	WarningErrf(err error, format string, args ...interface{})
}

// request is one parsed unit of interactive input. Its lifetime is one
// loop iteration.
type request struct {
	Command  string `json:"command"`
	Filename string `json:"filename"`
	Size     *int64 `json:"size"`
}

// Server runs the interactive request loop.
type Server struct {
	In  *bufio.Reader
	Out io.Writer

	Artifact Artifact
	Walker   Expander
	Engine   BufferTagger
	Report   Warner

	// Name and Version identify the program in the startup banner.
	Name    string
	Version string
}

// Run emits the startup banner and serves requests until end of input.
// A protocol error terminates the session with a non-nil error; clean end
// of input returns nil.
func (s *Server) Run() error {
	s.reply(`{"_type": "program", "name": %q, "version": %q}`, s.Name, s.Version)

	for {
		line, err := s.In.ReadString('\n')
		if line != "" && strings.TrimSpace(line) != "" {
			if handleErr := s.handle(line); handleErr != nil {
				return handleErr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("cannot read request: %w", err)
		}
	}
}

// handle parses and dispatches a single request line.
func (s *Server) handle(line string) error {
	var req request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	if req.Command == "" {
		return ErrMissingCommand
	}
	if req.Command != "generate-tags" {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, req.Command)
	}

	if req.Filename == "" {
		return fmt.Errorf("%w: missing filename", ErrInvalidRequest)
	}
	if req.Size != nil && *req.Size < 0 {
		return fmt.Errorf("%w: negative size", ErrInvalidRequest)
	}

	if err := s.Artifact.Open(); err != nil {
		return err
	}

	if req.Size == nil {
		// Resolve the named file from disk.
		s.Walker.Expand(req.Filename)
	} else {
		// Tag exactly the bytes supplied inline on the request stream,
		// bypassing disk entirely. Short reads are accepted.
		data := make([]byte, *req.Size)
		n, err := io.ReadFull(s.In, data)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return fmt.Errorf("cannot read inline buffer: %w", err)
		}
		if _, err := s.Engine.TagBuffer(req.Filename, data[:n]); err != nil {
			if s.Report != nil {
				s.Report.WarningErrf(err, "cannot tag buffer for %q", req.Filename)
			}
		}
	}

	if err := s.Artifact.Close(false); err != nil {
		return err
	}

	s.reply(`{"_type": "completed", "command": "generate-tags"}`)
	return nil
}

// reply writes one response line and flushes it immediately.
func (s *Server) reply(format string, args ...interface{}) {
	fmt.Fprintf(s.Out, format+"\n", args...)
	type flusher interface{ Flush() error }
	if f, ok := s.Out.(flusher); ok {
		_ = f.Flush()
	}
}

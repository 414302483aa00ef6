package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/routecue/waypointd/internal/dispatcher"
)

// maxLineSize bounds one command line; routes with long geometry are large.
const maxLineSize = 16 << 20

// commandLine is one NDJSON input record.
type commandLine struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
	// ID is echoed back in the response when set.
	ID string `json:"id,omitempty"`
}

// response is written for every command that returns a result or an error.
type response struct {
	ID      string `json:"id,omitempty"`
	Command string `json:"command"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// syncWriter serializes writes from the command loop and the voice output.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newSyncWriter(w io.Writer) *syncWriter {
	return &syncWriter{w: w}
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}

// decodeCommand parses one input line. Blank lines and lines starting with
// '#' yield an empty command.
func decodeCommand(line []byte) (commandLine, error) {
	var cmd commandLine
	s := strings.TrimSpace(string(line))
	if s == "" || strings.HasPrefix(s, "#") {
		return cmd, nil
	}
	if err := json.Unmarshal([]byte(s), &cmd); err != nil {
		return cmd, fmt.Errorf("invalid command line: %w", err)
	}
	if cmd.Command == "" {
		return cmd, fmt.Errorf("invalid command line: missing command")
	}
	return cmd, nil
}

// readCommands dispatches every line of r until EOF or ctx is done.
// Malformed lines and failing commands are reported and skipped.
func readCommands(ctx context.Context, r io.Reader, d *dispatcher.Dispatcher, out io.Writer, logger *slog.Logger) error {
	// stops the scanner when a write fails first
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for sc.Scan() {
			line := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	enc := json.NewEncoder(out)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("failed to read commands: %w", err)
					}
				default:
				}
				return nil
			}
			cmd, err := decodeCommand(line)
			if err != nil {
				logger.Warn("Skipping input line", "error", err)
				if err := enc.Encode(response{Error: err.Error()}); err != nil {
					return fmt.Errorf("failed to write response: %w", err)
				}
				continue
			}
			if cmd.Command == "" {
				continue
			}

			result, err := d.Dispatch(dispatcher.Event{
				ID:        cmd.ID,
				Command:   cmd.Command,
				Args:      cmd.Args,
				Timestamp: time.Now(),
			})
			resp := response{ID: cmd.ID, Command: cmd.Command, Result: result}
			if err != nil {
				resp.Error = err.Error()
			}
			if resp.Result == nil && resp.Error == "" {
				continue
			}
			if err := enc.Encode(resp); err != nil {
				return fmt.Errorf("failed to write response: %w", err)
			}
		}
	}
}

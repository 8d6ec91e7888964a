package input

import (
	"bufio"
	"context"
	"io"
	"os"
)

const maxLineSize = 1024 * 1024

// ReaderAdapter reads lines from an io.Reader such as standard input.
type ReaderAdapter struct {
	source string
	reader io.Reader
}

// NewStdinAdapter creates a ReaderAdapter reading from os.Stdin.
func NewStdinAdapter(source string) *ReaderAdapter {
	return &ReaderAdapter{source: source, reader: os.Stdin}
}

// NewReaderAdapter creates a ReaderAdapter with a custom reader.
func NewReaderAdapter(source string, r io.Reader) *ReaderAdapter {
	return &ReaderAdapter{source: source, reader: r}
}

// Name returns the adapter identifier.
func (a *ReaderAdapter) Name() string {
	return "stdin"
}

// Run reads lines until EOF or ctx is cancelled.
// Reads do not observe ctx, so scanning happens on a separate goroutine.
func (a *ReaderAdapter) Run(ctx context.Context, emit func(line string)) error {
	lines := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer close(lines)
		errCh <- scanLines(ctx, a.reader, lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := <-errCh; err != nil && ctx.Err() == nil {
					return &AdapterError{
						Source:  a.source,
						Message: "failed to read input",
						Err:     err,
					}
				}
				return ctx.Err()
			}
			emit(line)
		}
	}
}

// scanLines sends each sanitized non-empty line on out.
func scanLines(ctx context.Context, r io.Reader, out chan<- string) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := sanitizeLine(scanner.Text())
		if line == "" {
			continue
		}
		select {
		case out <- line:
		case <-ctx.Done():
			return nil
		}
	}
	return scanner.Err()
}

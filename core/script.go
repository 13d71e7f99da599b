package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/josephlewis42/qicmd/core/functions"
)

// CommentPrefix starts a script line that is skipped.
const CommentPrefix = "#"

// RunScript runs r line by line. Bracketed definitions may span several
// lines; one still open at the end of the input is reported as malformed.
func (s *Shell) RunScript(ctx context.Context, r io.Reader) error {
	var block functions.Accumulator

	scanner := bufio.NewScanner(r)
	for scanner.Scan() && !s.Quit {
		line := strings.TrimSpace(scanner.Text())
		if !block.Pending() && (line == "" || strings.HasPrefix(line, CommentPrefix)) {
			continue
		}

		text, ok := block.Feed(line)
		if !ok {
			continue
		}
		if err := s.Execute(ctx, text); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if err := block.Flush(); err != nil {
		s.reportError("", err)
	}
	return nil
}

// RunFile runs the script at path, resolved against the working directory.
func (s *Shell) RunFile(ctx context.Context, path string) error {
	fd, err := s.fs.Open(s.resolve(path))
	if err != nil {
		return fmt.Errorf("file not found: %s", path)
	}
	defer fd.Close()

	return s.RunScript(ctx, fd)
}

// RunStartupScript runs the configured startup script if there is one.
func (s *Shell) RunStartupScript(ctx context.Context) error {
	fd, err := s.config.OpenStartupScript()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return err
	}
	defer fd.Close()

	return s.RunScript(ctx, fd)
}

package core

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/josephlewis42/qicmd/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExecutor(t *testing.T) {
	cfg := config.Default()

	cfg.Executor = config.ExecutorProcess
	executor, err := NewExecutor(cfg)
	require.NoError(t, err)
	assert.Equal(t, &ProcessExecutor{Shell: "/bin/sh", Args: []string{"-c"}}, executor)

	cfg.Executor = config.ExecutorInterp
	executor, err = NewExecutor(cfg)
	require.NoError(t, err)
	assert.IsType(t, &InterpExecutor{}, executor)

	cfg.Executor = "cmd.exe"
	_, err = NewExecutor(cfg)
	assert.Error(t, err)
}

func TestInterpExecutor(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]struct {
		line       string
		wantStatus int
		wantOut    string
		wantErr    bool
	}{
		"echo":        {line: "echo hi", wantOut: "hi\n"},
		"env":         {line: "echo $GREETING", wantOut: "hello\n"},
		"dir":         {line: "pwd", wantOut: dir + "\n"},
		"exit status": {line: "echo partial; exit 3", wantStatus: 3, wantOut: "partial\n"},
		"syntax":      {line: "echo (", wantStatus: 2, wantErr: true},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			var out bytes.Buffer
			status, err := (&InterpExecutor{}).Execute(context.Background(), ExecRequest{
				Line:   tc.line,
				Dir:    dir,
				Env:    []string{"GREETING=hello"},
				Stdout: &out,
				Stderr: &out,
			})

			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.wantOut, out.String())
			}
			assert.Equal(t, tc.wantStatus, status)
		})
	}
}

func TestProcessExecutor(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}

	executor := &ProcessExecutor{Shell: "/bin/sh", Args: []string{"-c"}}

	var out bytes.Buffer
	status, err := executor.Execute(context.Background(), ExecRequest{
		Line:   "echo $GREETING; exit 4",
		Dir:    t.TempDir(),
		Env:    []string{"GREETING=hello"},
		Stdout: &out,
		Stderr: &out,
	})
	assert.NoError(t, err)
	assert.Equal(t, 4, status)
	assert.Equal(t, "hello\n", out.String())

	t.Run("interactive gets stdin", func(t *testing.T) {
		var out bytes.Buffer
		_, err := executor.Execute(context.Background(), ExecRequest{
			Line:        "cat",
			Dir:         t.TempDir(),
			Stdin:       strings.NewReader("typed\n"),
			Stdout:      &out,
			Interactive: true,
		})
		assert.NoError(t, err)
		assert.Equal(t, "typed\n", out.String())
	})

	t.Run("missing shell", func(t *testing.T) {
		_, err := (&ProcessExecutor{Shell: "/does/not/exist"}).Execute(context.Background(), ExecRequest{Line: "true"})
		assert.Error(t, err)
	})
}

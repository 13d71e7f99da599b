package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/josephlewis42/qicmd/core/config"
	"github.com/josephlewis42/qicmd/core/logger"
	"github.com/sebdah/goldie/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.March, 9, 8, 5, 7, 0, time.UTC)

// recordingExecutor stands in for the system shell, echoing each line it's
// asked to run.
type recordingExecutor struct {
	requests []ExecRequest
	status   int
	err      error
}

func (r *recordingExecutor) Execute(ctx context.Context, req ExecRequest) (int, error) {
	r.requests = append(r.requests, req)
	if r.err != nil {
		return -1, r.err
	}
	fmt.Fprintf(req.Stdout, "ran: %s\n", req.Line)
	return r.status, nil
}

func (r *recordingExecutor) lines() []string {
	var out []string
	for _, req := range r.requests {
		out = append(out, req.Line)
	}
	return out
}

type testShell struct {
	*Shell
	out      *bytes.Buffer
	executor *recordingExecutor
	events   *bytes.Buffer
}

func newTestShell(t *testing.T, configure func(cfg *config.Configuration)) *testShell {
	t.Helper()

	cfg := config.Default()
	cfg.Color = ColorNever
	if configure != nil {
		configure(cfg)
	}

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work/sub", 0755))
	require.NoError(t, afero.WriteFile(fs, "/work/script.qi", []byte("echo from script\n"), 0644))

	events := &bytes.Buffer{}
	eventLog := logger.NewJSONLinesLogRecorder(events)
	eventLog.SetClock(func() time.Time { return fixedNow })

	out := &bytes.Buffer{}
	executor := &recordingExecutor{}
	s, err := NewShell(cfg, ShellOptions{
		Stdin:    strings.NewReader(""),
		Stdout:   out,
		Stderr:   out,
		Fs:       fs,
		Dir:      "/work",
		Env:      []string{"HOME=/work", "USER=ada", "HOSTNAME=box"},
		Executor: executor,
		Clock:    func() time.Time { return fixedNow },
		Events:   eventLog.NewSessionWithID("test"),
	})
	require.NoError(t, err)

	return &testShell{Shell: s, out: out, executor: executor, events: events}
}

func (ts *testShell) run(t *testing.T, lines ...string) {
	t.Helper()
	for _, line := range lines {
		_ = ts.Execute(context.Background(), line)
	}
}

type goldenTestSuite map[string]goldenTest

type goldenTest struct {
	Lines []string
}

func (gts goldenTestSuite) Run(t *testing.T) {
	t.Helper()

	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)

	for tn, tc := range gts {
		t.Run(tn, func(t *testing.T) {
			ts := newTestShell(t, nil)
			ts.run(t, tc.Lines...)

			g.Assert(t, tn, ts.out.Bytes())
		})
	}
}

func TestBuiltins(t *testing.T) {
	cases := goldenTestSuite{
		"help": {[]string{"help"}},
		"echo": {[]string{
			"echo hello   world",
			`echo "quoted   spaces"`,
			`echo -e 'one\ntwo'`,
			"echo",
		}},
		"echo-expansions": {[]string{
			"echo $[Number: 5 => Number.Neg]",
			"echo $[Date:2024-01-01 15:06:32 => Time]",
			"echo $[@:gettime(Now)] $[@:getdate(now)]",
			"echo $[String: Hello => String.Upper => String.Length]",
		}},
		"cd": {[]string{
			"cd",
			"cd sub",
			"pwd",
			"chdir ..",
			"cd missing",
			"cd a b",
		}},
		"functions": {[]string{
			"listfuncs",
			"def greet => [echo hi; echo bye]",
			"def now => echo $[@:gettime(Now)]",
			"greet",
			"NOW",
			"listfuncs",
		}},
		"def-errors": {[]string{
			"def => echo",
			"def x echo",
			"def x => [echo",
			"def x => []",
			"listfuncs",
		}},
		"delfunc": {[]string{
			"delfunc",
			"def a => echo a",
			"delfunc A",
			"delfunc a",
		}},
		"calc": {[]string{
			"calc (2+1)^3",
			"calc 10/2 + 3*2",
			"calc 3^2+1",
			"calc 5/0",
			"calc (2+3",
			"calc 2 $ 3",
		}},
		"external": {[]string{
			"dir",
			"schtasks /st $[Date:2024-01-01 15:06:32 => Time]",
			"ECHO builtins match case-insensitively",
		}},
	}

	cases.Run(t)
}

func TestShell_functionCallsAreReexpanded(t *testing.T) {
	ts := newTestShell(t, nil)
	ts.run(t,
		"def stamp => [notify $[@:gettime(Now)]; notify $[Number: -3 => Number.Abs]]",
		"stamp",
	)

	assert.Equal(t, []string{"notify 8h5m7s", "notify 3"}, ts.executor.lines())

	def, ok := ts.Functions().Lookup("stamp")
	require.True(t, ok)
	assert.Equal(t, []string{"notify $[@:gettime(Now)]", "notify $[Number: -3 => Number.Abs]"}, def.Commands)
}

func TestShell_functionCallsOtherFunctions(t *testing.T) {
	ts := newTestShell(t, nil)
	ts.run(t,
		"def inner => echo inner",
		"def outer => [echo before; inner; echo after]",
		"outer",
	)

	assert.Equal(t, "before\ninner\nafter\n", ts.out.String())
}

func TestShell_callDepth(t *testing.T) {
	ts := newTestShell(t, func(cfg *config.Configuration) {
		cfg.MaxCallDepth = 3
	})
	ts.run(t, "def loop => [tick; loop]")

	err := ts.Execute(context.Background(), "loop")
	assert.True(t, errors.Is(err, ErrCallDepthExceeded))
	assert.Equal(t, []string{"tick", "tick", "tick"}, ts.executor.lines())
	assert.Contains(t, ts.out.String(), "qicmd: loop: maximum function call depth exceeded (3)\n")

	// The session keeps working afterwards.
	ts.run(t, "after")
	assert.Equal(t, "after", ts.executor.lines()[3])
}

func TestShell_callDepthDisabled(t *testing.T) {
	ts := newTestShell(t, func(cfg *config.Configuration) {
		cfg.MaxCallDepth = 0
	})
	ts.run(t, "def loop => [tick; loop]")

	// Without a limit the recursion only ends when the context does, so bound it
	// from the executor.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0
	ts.Shell.executor = ExecutorFunc(func(ctx context.Context, req ExecRequest) (int, error) {
		calls++
		if calls == 50 {
			cancel()
		}
		return 0, nil
	})

	err := ts.Execute(ctx, "loop")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 50, calls)
	assert.NotContains(t, ts.out.String(), "qicmd:")
}

func TestShell_exit(t *testing.T) {
	ts := newTestShell(t, nil)
	ts.run(t, "def bye => [echo one; exit; echo two]", "bye", "echo three")

	assert.True(t, ts.Quit)
	assert.Equal(t, "one\n", ts.out.String())
}

func TestShell_executorRequest(t *testing.T) {
	ts := newTestShell(t, nil)
	ts.executor.status = 3
	ts.run(t, "cd sub", "ssh host", "make all")

	require.Len(t, ts.executor.requests, 2)
	ssh, mk := ts.executor.requests[0], ts.executor.requests[1]

	assert.Equal(t, "/work/sub", ssh.Dir)
	assert.True(t, ssh.Interactive)
	assert.False(t, mk.Interactive)
	assert.Contains(t, mk.Env, "PWD=/work/sub")
	assert.Contains(t, mk.Env, "USER=ada")
	assert.Equal(t, 3, ts.LastStatus())
}

func TestShell_executorError(t *testing.T) {
	ts := newTestShell(t, nil)
	ts.executor.err = errors.New("exec: \"cmd.exe\": executable file not found in $PATH")
	ts.run(t, "dir")

	assert.Equal(t, "qicmd: exec: \"cmd.exe\": executable file not found in $PATH\n", ts.out.String())
	assert.Equal(t, 127, ts.LastStatus())
}

func TestShell_unknownGeneratorReachesCommand(t *testing.T) {
	ts := newTestShell(t, nil)
	ts.run(t, "notify $[@:nope(1)]", "notify $[@:plain text]")

	assert.Equal(t, []string{
		"notify [Error: Unknown function 'nope']",
		"notify plain text",
	}, ts.executor.lines())
}

func TestShell_events(t *testing.T) {
	ts := newTestShell(t, nil)
	ts.run(t,
		"def hi => echo $[String: Hi => String.Lower]",
		"hi",
		"delfunc hi",
		"calc 1/0",
	)

	report := logger.NewReport()
	require.NoError(t, logger.ReadJSONLinesLog(ts.events, func(le *logger.LogEntry) {
		assert.Equal(t, "test", le.SessionID)
		report.Update(le)
	}))

	assert.Equal(t, 1, report.Functions.Defined.Get("hi"))
	assert.Equal(t, 1, report.Functions.Deleted.Get("hi"))
	assert.Equal(t, 1, report.Expansion.Count)
	assert.Equal(t, 1, report.Expansion.Steps.Get("String.Lower"))
	assert.Equal(t, 4, report.RunCommand.Kinds.Get(KindBuiltin))
	assert.Equal(t, 1, report.RunCommand.Kinds.Get(KindFunction))
	assert.Equal(t, 1, report.RunCommand.CommandNames.Get("calc"))
}

func TestShell_eventLogFailure(t *testing.T) {
	var logs bytes.Buffer
	logger.Configure("warn", &logs)
	t.Cleanup(func() { logger.Configure("warn", nil) })

	ts := newTestShell(t, nil)
	failing := &logger.EventLog{Record: func(*logger.LogEntry) error {
		return errors.New("disk full")
	}}
	ts.Shell.events = failing.NewSessionWithID("test")

	ts.run(t, "echo still running")

	assert.Equal(t, "still running\n", ts.out.String())
	assert.Contains(t, logs.String(), "couldn't record event")
	assert.Contains(t, logs.String(), "disk full")
}

func TestShell_Prompt(t *testing.T) {
	cases := map[string]struct {
		prompt   string
		dir      string
		expected string
	}{
		"default":         {`\w>`, "/work", `~>`},
		"subdir":          {`\w>`, "/work/sub", `~/sub>`},
		"outside home":    {`\w>`, "/tmp", `/tmp>`},
		"user and host":   {`\u@\h:\w$ `, "/tmp", `ada@box:/tmp$ `},
		"escape sequence": {`\w\n> `, "/tmp", "/tmp\n> "},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ts := newTestShell(t, func(cfg *config.Configuration) {
				cfg.Prompt = tc.prompt
			})
			ts.setDir(tc.dir)

			assert.Equal(t, tc.expected, ts.Prompt())
		})
	}
}

func TestShell_PromptColor(t *testing.T) {
	ts := newTestShell(t, func(cfg *config.Configuration) {
		cfg.Color = ColorAlways
	})

	assert.Equal(t, "\x1b[32;1m~\x1b[0m>", ts.Prompt())
}

func TestHistory(t *testing.T) {
	ts := newTestShell(t, nil)
	ts.history = []string{"echo a", "listfuncs"}

	ts.run(t, "history")
	assert.Equal(t, "    0  echo a\n    1  listfuncs\n", ts.out.String())

	ts.run(t, "history -c")
	assert.Empty(t, ts.history)
}

func TestBuiltinNames(t *testing.T) {
	names := BuiltinNames()
	assert.Contains(t, names, "chdir")
	assert.Contains(t, names, "def")

	for _, name := range []string{"CD", "ListFuncs", "EXIT"} {
		_, ok := lookupBuiltin(name)
		assert.True(t, ok, name)
	}
}

func TestUnescape(t *testing.T) {
	cases := []struct {
		escaped  string
		expected string
	}{
		{"not escaped", "not escaped"},
		{`newline\n`, "newline\n"},
		{`double-escape\\n`, `double-escape\n`},
		// Octal
		{`\07`, string(rune(7))},
		{`\011`, "\t"},
		{`\0101`, "A"},
		{`\0377`, "\xff"},
		{`\0400`, `\0400`},
		{`\08`, `\08`},
		// Hex
		{`\x7`, string(rune(07))},
		{`\x9`, "\t"},
		{`\x4A`, "J"},
		{`\xFF`, "\xff"},
	}

	for _, tc := range cases {
		t.Run(tc.escaped, func(t *testing.T) {
			actual := unescape(tc.escaped)

			assert.Equal(t, tc.expected, actual)
		})
	}
}

package ttylog

import (
	"io"
	"sync"
	"time"

	"github.com/josephlewis42/qicmd/core/logger"
)

// FD identifies the stream a chunk of terminal data travelled on.
type FD int

const (
	FDStdin FD = iota
	FDStdout
	FDStderr
)

// TTYLogEntry is one chunk of terminal I/O.
type TTYLogEntry struct {
	TimestampMicros int64
	FD              FD
	Data            []byte
}

// LogSink receives log events.
type LogSink func(t *TTYLogEntry) error

// LogSource adapts log readers.
type LogSource interface {
	// Next fetches the next available log entry. It returns io.EOF if the source
	// has no more log entries.
	Next() (*TTYLogEntry, error)
}

// NewRealTimePlayback plays back the results in real-time.
// If maxSleep > 0, it's used as the maximum duration to pause.
func NewRealTimePlayback(maxSleep time.Duration, next LogSink) LogSink {
	var once sync.Once
	var prevTimeMicros int64

	return func(logEntry *TTYLogEntry) error {
		once.Do(func() {
			prevTimeMicros = logEntry.TimestampMicros
		})

		delta := logEntry.TimestampMicros - prevTimeMicros
		prevTimeMicros = logEntry.TimestampMicros

		if maxSleep > 0 {
			sleepDuration := time.Duration(delta) * time.Microsecond
			if sleepDuration > maxSleep {
				sleepDuration = maxSleep
			}
			time.Sleep(sleepDuration)
		}

		return next(logEntry)
	}
}

// NewClientOutput writes stdout and stderr to the given writer.
func NewClientOutput(w io.Writer) LogSink {
	return func(logEntry *TTYLogEntry) error {
		if logEntry.FD == FDStdin {
			return nil
		}
		_, err := w.Write(logEntry.Data)
		return err
	}
}

// Replay reads a stream of events to a callback.
func Replay(recording LogSource, callback LogSink) error {
	for {
		logEntry, err := recording.Next()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}

		if err := callback(logEntry); err != nil {
			return err
		}
	}
}

// Recorder tees a session's standard streams into a LogSink.
type Recorder struct {
	mutex  sync.Mutex
	output LogSink
	now    func() time.Time

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewRecorder wraps the given streams so everything read from stdin and
// written to stdout or stderr is forwarded to output.
func NewRecorder(stdin io.Reader, stdout, stderr io.Writer, output LogSink) *Recorder {
	recorder := &Recorder{
		output: output,
		now:    time.Now,
	}
	recorder.stdin = &recorderReader{r: recorder, fd: FDStdin, wrapped: stdin}
	recorder.stdout = &recorderWriter{r: recorder, fd: FDStdout, wrapped: stdout}
	recorder.stderr = &recorderWriter{r: recorder, fd: FDStderr, wrapped: stderr}
	return recorder
}

// SetClock replaces the source of entry timestamps.
func (r *Recorder) SetClock(now func() time.Time) {
	r.now = now
}

// Stdin gets the recorded input stream.
func (r *Recorder) Stdin() io.Reader { return r.stdin }

// Stdout gets the recorded output stream.
func (r *Recorder) Stdout() io.Writer { return r.stdout }

// Stderr gets the recorded error stream.
func (r *Recorder) Stderr() io.Writer { return r.stderr }

func (r *Recorder) record(fd FD, data []byte) {
	if len(data) == 0 {
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	err := r.output(&TTYLogEntry{
		TimestampMicros: r.now().UnixMicro(),
		FD:              fd,
		Data:            append([]byte(nil), data...),
	})
	if err != nil {
		logger.Warn("couldn't record terminal output", "err", err)
	}
}

type recorderReader struct {
	r       *Recorder
	fd      FD
	wrapped io.Reader
}

func (rr *recorderReader) Read(p []byte) (int, error) {
	n, err := rr.wrapped.Read(p)
	rr.r.record(rr.fd, p[:n])
	return n, err
}

type recorderWriter struct {
	r       *Recorder
	fd      FD
	wrapped io.Writer
}

func (rw *recorderWriter) Write(p []byte) (int, error) {
	n, err := rw.wrapped.Write(p)
	rw.r.record(rw.fd, p[:n])
	return n, err
}

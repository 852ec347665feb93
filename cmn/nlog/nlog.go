// Package nlog is a small buffered, leveled logger used by every background
// task in the cache engine (write workers, GC passes, the bloom engine).
// Trimmed from the teacher's cmn/nlog: no glog-style file rotation or
// -logtostderr flag wiring, since CLI flag parsing is an external contract
// for this repo (spec.md §1); everything flushes to an io.Writer (stderr by
// default) on a short interval or immediately for warnings/errors.
package nlog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/hawkingrei/greenhouse/cmn/mono"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

var sevChar = [...]byte{sevInfo: 'I', sevWarn: 'W', sevErr: 'E'}

// flushInterval bounds how long an Info line can sit in the buffer before
// a caller forces a flush; warnings/errors flush immediately.
const flushInterval = 2 * time.Second

type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	buf     bytes.Buffer
	lastFl  int64
	Verbose bool
}

// std is the package-level logger every helper below writes through,
// mirroring the teacher's package-function logging surface
// (nlog.Infof/Warningf/Errorf, not a *Logger method call at every site).
var std = New(os.Stderr)

func New(out io.Writer) *Logger {
	return &Logger{out: out, lastFl: mono.NanoTime()}
}

func SetOutput(w io.Writer) { std.mu.Lock(); std.out = w; std.mu.Unlock() }

func (l *Logger) log(sev severity, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf.WriteByte(sevChar[sev])
	l.buf.WriteByte(' ')
	l.buf.WriteString(time.Now().Format("15:04:05.000000"))
	l.buf.WriteByte(' ')
	if format == "" {
		fmt.Fprintln(&l.buf, args...)
	} else {
		fmt.Fprintf(&l.buf, format, args...)
		if n := l.buf.Len(); n == 0 || l.buf.Bytes()[n-1] != '\n' {
			l.buf.WriteByte('\n')
		}
	}

	force := sev >= sevWarn || mono.Since(l.lastFl) > flushInterval
	if force {
		l.flushLocked()
	}
}

func (l *Logger) flushLocked() {
	if l.buf.Len() == 0 {
		return
	}
	l.out.Write(l.buf.Bytes())
	l.buf.Reset()
	l.lastFl = mono.NanoTime()
}

func (l *Logger) Flush() {
	l.mu.Lock()
	l.flushLocked()
	l.mu.Unlock()
}

func Infof(format string, args ...any)    { std.log(sevInfo, format, args...) }
func Infoln(args ...any)                  { std.log(sevInfo, "%s", fmt.Sprintln(args...)) }
func Warningf(format string, args ...any) { std.log(sevWarn, format, args...) }
func Warningln(args ...any)               { std.log(sevWarn, "%s", fmt.Sprintln(args...)) }
func Errorf(format string, args ...any)   { std.log(sevErr, format, args...) }
func Errorln(args ...any)                 { std.log(sevErr, "%s", fmt.Sprintln(args...)) }
func Flush()                              { std.Flush() }

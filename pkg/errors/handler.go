package errors

import (
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

type handlerSlot struct{ h ErrorHandler }

var installed atomic.Pointer[handlerSlot]

func init() {
	installed.Store(&handlerSlot{h: &LogHandler{}})
}

// SetHandler installs h for reported errors and returns the handler it
// replaces. A nil h installs a LogHandler writing to stderr.
func SetHandler(h ErrorHandler) ErrorHandler {
	if h == nil {
		h = &LogHandler{}
	}
	return installed.Swap(&handlerSlot{h: h}).h
}

// Handler returns the installed handler.
func Handler() ErrorHandler {
	return installed.Load().h
}

// Report hands err to the installed handler, stamping its time and the
// stack of the caller when they are unset.
func Report(err *LumenError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	if err.StackTrace == "" {
		err.StackTrace = CaptureStack(1)
	}
	Handler().HandleError(err)
}

// Recover reports a panic in progress. It must be deferred directly:
//
//	defer errors.Recover("watch.render")
func Recover(op string) {
	if r := recover(); r != nil {
		reportPanic(op, r)
	}
}

// Guard calls fn. A panic in fn is reported and returned as a LumenError of
// kind KindPanic wrapping the PanicError.
func Guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p := reportPanic(op, r)
			err = &LumenError{Op: op, Kind: KindPanic, Err: p, StackTrace: p.StackTrace, Timestamp: p.Timestamp}
		}
	}()
	return fn()
}

func reportPanic(op string, value any) *PanicError {
	p := &PanicError{Op: op, Value: value, StackTrace: CaptureStack(2), Timestamp: time.Now()}
	Handler().HandlePanic(p)
	return p
}

// CaptureStack formats the stack of its caller, skipping skip more frames.
// Runtime frames are left out.
func CaptureStack(skip int) string {
	var pcs [32]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	if n == 0 {
		return ""
	}
	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if !strings.HasPrefix(f.Function, "runtime.") {
			fmt.Fprintf(&b, "%s\n\t%s:%d\n", f.Function, f.File, f.Line)
		}
		if !more {
			break
		}
	}
	return b.String()
}

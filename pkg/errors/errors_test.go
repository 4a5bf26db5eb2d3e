package errors

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLumenErrorString(t *testing.T) {
	err := &LumenError{
		Op:   "component.Initialize",
		Kind: KindLifecycle,
		Err:  ErrAlreadyInitialized,
	}
	want := "component.Initialize [lifecycle]: component already initialized"
	if got := err.Error(); got != want {
		t.Errorf("LumenError.Error() = %q, want %q", got, want)
	}
}

func TestLumenErrorWithNode(t *testing.T) {
	err := &LumenError{
		Op:   "component.adoptNode",
		Kind: KindOwnership,
		Node: "<span>",
		Err:  ErrAlreadyOwned,
	}
	got := err.Error()
	if !strings.Contains(got, "node=<span>") {
		t.Errorf("error string %q should contain node", got)
	}
	if !Is(err, ErrAlreadyOwned) {
		t.Error("expected LumenError to unwrap to ErrAlreadyOwned")
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindType, "type"},
		{KindDelegate, "delegate"},
		{KindLifecycle, "lifecycle"},
		{KindOwnership, "ownership"},
		{KindHierarchy, "hierarchy"},
		{KindRender, "render"},
		{KindPanic, "panic"},
		{KindAsync, "async"},
		{KindConfig, "config"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestTypeErrorNamesProperty(t *testing.T) {
	err := &TypeError{Name: "count", Value: "abc", Reason: "expected number"}
	got := err.Error()
	if !strings.Contains(got, `"count"`) || !strings.Contains(got, "abc") {
		t.Errorf("TypeError.Error() = %q, want property name and value", got)
	}

	var te *TypeError
	wrapped := New("property.Set", KindType, err)
	if !As(wrapped, &te) {
		t.Fatal("expected As to find TypeError")
	}
	if te.Name != "count" {
		t.Errorf("Name = %q, want %q", te.Name, "count")
	}
}

func TestPanicErrorString(t *testing.T) {
	err := &PanicError{Value: "boom", Timestamp: time.Now()}
	if got, want := err.Error(), "panic: boom"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
	err.Op = "watch.render"
	if got, want := err.Error(), "panic in watch.render: boom"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
}

func TestReport(t *testing.T) {
	var captured *LumenError
	prev := SetHandler(&testHandler{onError: func(err *LumenError) { captured = err }})
	defer SetHandler(prev)

	Report(New("render.Reconcile", KindRender, ErrNotFound))

	if captured == nil {
		t.Fatal("expected error to be captured")
	}
	if captured.Op != "render.Reconcile" {
		t.Errorf("Op = %q, want %q", captured.Op, "render.Reconcile")
	}
	if captured.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
	if !strings.Contains(captured.StackTrace, "TestReport") {
		t.Errorf("StackTrace should start at the caller, got %q", captured.StackTrace)
	}
}

func TestRecover(t *testing.T) {
	var captured *PanicError
	prev := SetHandler(&testHandler{onPanic: func(err *PanicError) { captured = err }})
	defer SetHandler(prev)

	func() {
		defer Recover("watch.render")
		panic("intentional test panic")
	}()

	if captured == nil {
		t.Fatal("expected panic to be recovered and captured")
	}
	if captured.Op != "watch.render" {
		t.Errorf("Op = %q, want %q", captured.Op, "watch.render")
	}
	if captured.StackTrace == "" || strings.Contains(captured.StackTrace, "runtime.gopanic") {
		t.Errorf("unexpected stack trace %q", captured.StackTrace)
	}
}

func TestGuard(t *testing.T) {
	panics := 0
	prev := SetHandler(&testHandler{onPanic: func(*PanicError) { panics++ }})
	defer SetHandler(prev)

	if err := Guard("cmd.render", func() error { return ErrNotFound }); err != ErrNotFound {
		t.Errorf("Guard() = %v, want %v", err, ErrNotFound)
	}
	err := Guard("cmd.render", func() error { panic(42) })
	var le *LumenError
	if !As(err, &le) || le.Kind != KindPanic {
		t.Fatalf("Guard() = %v, want a panic LumenError", err)
	}
	var pe *PanicError
	if !As(err, &pe) || pe.Value != 42 {
		t.Errorf("wrapped panic = %v, want value 42", pe)
	}
	if panics != 1 {
		t.Errorf("reported panics = %d, want 1", panics)
	}
}

func TestSetHandler(t *testing.T) {
	h := &testHandler{}
	prev := SetHandler(h)
	if Handler() != h {
		t.Errorf("Handler() = %T, want the installed handler", Handler())
	}
	if got := SetHandler(nil); got != h {
		t.Errorf("SetHandler(nil) returned %T, want the replaced handler", got)
	}
	if _, ok := Handler().(*LogHandler); !ok {
		t.Errorf("SetHandler(nil) should install a LogHandler, got %T", Handler())
	}
	SetHandler(prev)
}

func TestLogHandlerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	h := NewLogHandler(&buf, true)
	h.HandleError(&LumenError{
		Op:         "delegate.Delegate",
		Kind:       KindDelegate,
		Err:        ErrNotFound,
		StackTrace: "frame",
	})
	out := buf.String()
	for _, want := range []string{`"op":"delegate.Delegate"`, `"kind":"delegate"`, `"stack":"frame"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %s", out, want)
		}
	}

	buf.Reset()
	h.HandlePanic(&PanicError{Op: "x", Value: "v"})
	if !strings.Contains(buf.String(), "lumen panic") {
		t.Errorf("panic log output = %q", buf.String())
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func TestLogHandlerConcurrentUse(t *testing.T) {
	var out lockedBuffer
	h := NewLogHandler(&out, false)
	prev := SetHandler(h)
	defer SetHandler(prev)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = Guard("component.DispatchAsyncEvent", func() error { panic(i) })
		}()
	}
	wg.Wait()
	if got := strings.Count(out.buf.String(), "lumen panic"); got != 8 {
		t.Errorf("logged panics = %d, want 8", got)
	}
}

type testHandler struct {
	onError func(*LumenError)
	onPanic func(*PanicError)
}

func (h *testHandler) HandleError(err *LumenError) {
	if h.onError != nil {
		h.onError(err)
	}
}

func (h *testHandler) HandlePanic(err *PanicError) {
	if h.onPanic != nil {
		h.onPanic(err)
	}
}

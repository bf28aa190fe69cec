package timer

import (
	"sync"
	"time"

	"github.com/mrenfro/conduit/internal/core/ports"
)

// Factory constructs AfterFuncTimers bound to a SerialContext.
type Factory struct{}

// NewFactory returns the default ports.TimerFactory implementation.
func NewFactory() *Factory { return &Factory{} }

func (Factory) NewTimer(ctx ports.SerialContext) ports.Timer {
	return &afterFuncTimer{ctx: ctx}
}

// afterFuncTimer is a cancelable rearmable one-shot built on time.AfterFunc,
// grounded on the teacher's health.Scheduler due-time model but simplified:
// an HttpClient has at most one outstanding idle-timer at a time (spec.md
// §2, "Timer (~3%)"), so no heap of scheduled fires is needed, just a
// single *time.Timer that Arm replaces.
type afterFuncTimer struct {
	mu sync.Mutex
	t  *time.Timer
	ctx ports.SerialContext
}

func (a *afterFuncTimer) Arm(d time.Duration, fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.t != nil {
		a.t.Stop()
	}
	a.t = time.AfterFunc(d, func() {
		a.ctx.Post(fn)
	})
}

func (a *afterFuncTimer) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.t != nil {
		a.t.Stop()
		a.t = nil
	}
}

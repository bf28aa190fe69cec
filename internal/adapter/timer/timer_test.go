package timer

import (
	"testing"
	"time"
)

// inlineSerialContext runs posted work synchronously, sufficient for these
// tests since afterFuncTimer only ever posts once per fire.
type inlineSerialContext struct{}

func (inlineSerialContext) Post(fn func()) { fn() }
func (inlineSerialContext) Close()         {}

func TestAfterFuncTimer_FiresAfterDuration(t *testing.T) {
	factory := NewFactory()
	tm := factory.NewTimer(inlineSerialContext{})

	done := make(chan struct{})
	tm.Arm(20*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestAfterFuncTimer_CancelPreventsFire(t *testing.T) {
	factory := NewFactory()
	tm := factory.NewTimer(inlineSerialContext{})

	fired := make(chan struct{})
	tm.Arm(20*time.Millisecond, func() { close(fired) })
	tm.Cancel()

	select {
	case <-fired:
		t.Fatal("expected canceled timer not to fire")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestAfterFuncTimer_RearmReplacesPreviousFire(t *testing.T) {
	factory := NewFactory()
	tm := factory.NewTimer(inlineSerialContext{})

	firstFired := make(chan struct{})
	tm.Arm(20*time.Millisecond, func() { close(firstFired) })

	secondFired := make(chan struct{})
	tm.Arm(5*time.Millisecond, func() { close(secondFired) })

	select {
	case <-secondFired:
	case <-time.After(time.Second):
		t.Fatal("rearmed timer did not fire")
	}

	select {
	case <-firstFired:
		t.Fatal("expected the original Arm to be stopped by the rearm")
	case <-time.After(60 * time.Millisecond):
	}
}

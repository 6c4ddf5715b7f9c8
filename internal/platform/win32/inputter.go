//go:build windows

package win32

import (
	"fmt"
	"time"

	"github.com/mj1618/dslr-remote/internal/model"
)

// Inputter implements platform.Inputter by posting mouse messages directly
// to the target control, so the remote app does not need focus.
type Inputter struct {
	// Hold is the delay between button down and up.
	Hold time.Duration
}

// NewInputter creates a new Windows inputter.
func NewInputter() *Inputter {
	return &Inputter{Hold: 30 * time.Millisecond}
}

// Click posts a primary-button press at the control's origin.
func (in *Inputter) Click(h model.ControlHandle) error {
	return in.ClickAt(h, 0, 0, 1)
}

// ClickAt posts count primary-button clicks at client coordinates x, y. The
// second click of a pair is sent as a double-click message.
func (in *Inputter) ClickAt(h model.ControlHandle, x, y, count int) error {
	if count < 1 {
		count = 1
	}
	lparam := uintptr(uint32(y)<<16 | uint32(x)&0xFFFF)
	for i := 0; i < count; i++ {
		down := uintptr(wmLButtonDown)
		if i%2 == 1 {
			down = wmLButtonDblClk
		}
		if err := post(h, down, mkLButton, lparam); err != nil {
			return err
		}
		time.Sleep(in.Hold)
		if err := post(h, wmLButtonUp, 0, lparam); err != nil {
			return err
		}
	}
	return nil
}

func post(h model.ControlHandle, msg, wparam, lparam uintptr) error {
	ret, _, err := procPostMessageW.Call(uintptr(h), msg, wparam, lparam)
	if ret == 0 {
		return fmt.Errorf("PostMessage %#x to %#x: %w", msg, uintptr(h), err)
	}
	return nil
}

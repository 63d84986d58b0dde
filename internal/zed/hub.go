package zed

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/zedopen/zedcapture/pkg/zed"
)

// Frame is a copy of one captured frame
type Frame struct {
	Data       []byte
	Width      int
	Height     int
	ColorSpace zed.ColorSpace
	Time       time.Time
}

// hub hands frames from the capture goroutine to waiting consumers. A frame
// is copied only when somebody waits for it, slow consumers skip frames.
type hub struct {
	mu         sync.Mutex
	colorSpace zed.ColorSpace
	waiters    []chan *Frame
}

func (h *hub) setColorSpace(cs zed.ColorSpace) {
	h.mu.Lock()
	h.colorSpace = cs
	h.mu.Unlock()
}

func (h *hub) onFrame(frame []byte, height, width, _ int) {
	h.mu.Lock()
	waiters := h.waiters
	h.waiters = nil
	cs := h.colorSpace
	h.mu.Unlock()

	if len(waiters) == 0 {
		return
	}

	f := &Frame{
		Data:       bytes.Clone(frame),
		Width:      width,
		Height:     height,
		ColorSpace: cs,
		Time:       time.Now(),
	}

	for _, ch := range waiters {
		ch <- f // buffered
	}
}

// Next waits for the next captured frame
func (h *hub) Next(ctx context.Context) (*Frame, error) {
	ch := make(chan *Frame, 1)

	h.mu.Lock()
	h.waiters = append(h.waiters, ch)
	h.mu.Unlock()

	select {
	case f := <-ch:
		return f, nil
	case <-ctx.Done():
		h.remove(ch)
		return nil, ctx.Err()
	}
}

func (h *hub) remove(ch chan *Frame) {
	h.mu.Lock()
	for i, w := range h.waiters {
		if w == ch {
			h.waiters = append(h.waiters[:i], h.waiters[i+1:]...)
			break
		}
	}
	h.mu.Unlock()
}

package sched

import (
	"container/heap"
)

// Timer fires a callback at a point in emulated time. Periodic timers
// re-arm themselves after each callback.
type Timer struct {
	s      *Scheduler
	when   Time
	period Time
	seq    uint64
	index  int
	cb     func()
}

func (t *Timer) When() Time { return t.when }

func (t *Timer) Active() bool { return t.index >= 0 }

func (t *Timer) Cancel() {
	if t.index >= 0 {
		heap.Remove(&t.s.timers, t.index)
	}
}

// timers are ordered by expiry, then by creation
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if c := h[i].when.Cmp(h[j].when); c != 0 {
		return c < 0
	}
	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x interface{}) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

func (h timerHeap) next() Time {
	if len(h) == 0 {
		return Never
	}
	return h[0].when
}

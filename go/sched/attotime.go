package sched

import (
	"fmt"
	"math"
	"math/bits"
	"time"
)

const AttoPerSec uint64 = 1e18

// Time is emulated time: whole seconds plus attoseconds. It is never
// negative.
type Time struct {
	Sec  int64
	Atto uint64
}

var (
	Zero  = Time{}
	Never = Time{Sec: math.MaxInt64, Atto: AttoPerSec - 1}
)

// (a * b) / c without overflowing, for a < c
func mulDiv(a, b, c uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	q, _ := bits.Div64(hi, lo, c)
	return q
}

// FromCycles is the duration of cycles at hz.
func FromCycles(cycles, hz uint64) Time {
	if hz == 0 {
		return Never
	}
	return Time{
		Sec:  int64(cycles / hz),
		Atto: mulDiv(cycles%hz, AttoPerSec, hz),
	}
}

func FromDuration(d time.Duration) Time {
	if d <= 0 {
		return Zero
	}
	return Time{
		Sec:  int64(d / time.Second),
		Atto: uint64(d%time.Second) * 1e9,
	}
}

func FromSeconds(s float64) Time {
	if s <= 0 {
		return Zero
	}
	sec := math.Floor(s)
	return Time{Sec: int64(sec), Atto: uint64((s - sec) * 1e18)}
}

func (t Time) IsNever() bool {
	return t.Sec == math.MaxInt64
}

func (t Time) Add(o Time) Time {
	if t.IsNever() || o.IsNever() {
		return Never
	}
	r := Time{Sec: t.Sec + o.Sec, Atto: t.Atto + o.Atto}
	if r.Atto >= AttoPerSec {
		r.Atto -= AttoPerSec
		r.Sec++
	}
	return r
}

// Sub clamps at Zero.
func (t Time) Sub(o Time) Time {
	if !o.Less(t) {
		return Zero
	}
	if t.IsNever() {
		return Never
	}
	r := Time{Sec: t.Sec - o.Sec}
	if t.Atto >= o.Atto {
		r.Atto = t.Atto - o.Atto
	} else {
		r.Sec--
		r.Atto = t.Atto + AttoPerSec - o.Atto
	}
	return r
}

func (t Time) Cmp(o Time) int {
	switch {
	case t.Sec < o.Sec:
		return -1
	case t.Sec > o.Sec:
		return 1
	case t.Atto < o.Atto:
		return -1
	case t.Atto > o.Atto:
		return 1
	}
	return 0
}

func (t Time) Less(o Time) bool {
	return t.Cmp(o) < 0
}

// Cycles is the number of whole cycles at hz that fit in t.
func (t Time) Cycles(hz uint64) uint64 {
	if t.IsNever() {
		return math.MaxUint64
	}
	return uint64(t.Sec)*hz + mulDiv(t.Atto, hz, AttoPerSec)
}

func (t Time) Seconds() float64 {
	return float64(t.Sec) + float64(t.Atto)/1e18
}

func (t Time) String() string {
	if t.IsNever() {
		return "never"
	}
	return fmt.Sprintf("%d.%09ds", t.Sec, t.Atto/1e9)
}

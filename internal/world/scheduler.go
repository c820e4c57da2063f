package world

import (
	"container/heap"

	"github.com/df-mc/dragonfly/server/block/cube"

	"mad-liquid/internal/liquid"
)

// Tick is a due update handed back by TickScheduler.Advance.
type Tick struct {
	Pos    cube.Pos
	Liquid string
	Due    int64
}

type tickKey struct {
	pos    cube.Pos
	liquid string
}

type pendingTick struct {
	due int64
	seq uint64
}

// TickScheduler keeps at most one pending tick per position and liquid.
// Scheduling a cell that is already pending keeps the earlier of the two
// due times. Due ticks are released in due order, then in the order they
// were scheduled.
type TickScheduler struct {
	now     int64
	seq     uint64
	pending map[tickKey]pendingTick
	queue   tickQueue
}

// NewTickScheduler returns an empty scheduler at tick 0.
func NewTickScheduler() *TickScheduler {
	return &TickScheduler{pending: map[tickKey]pendingTick{}}
}

// Now returns the current tick.
func (t *TickScheduler) Now() int64 { return t.now }

// Pending returns the number of armed ticks.
func (t *TickScheduler) Pending() int { return len(t.pending) }

// PendingAt reports whether pos has an armed tick for the named liquid.
func (t *TickScheduler) PendingAt(pos cube.Pos, liquidName string) bool {
	_, ok := t.pending[tickKey{pos: pos, liquid: liquidName}]
	return ok
}

// Schedule arms a tick for pos after delay ticks. Delays below 1 are
// raised to 1.
func (t *TickScheduler) Schedule(liquidName string, pos cube.Pos, delay int) {
	if delay < 1 {
		delay = 1
	}
	due := t.now + int64(delay)
	key := tickKey{pos: pos, liquid: liquidName}
	if cur, ok := t.pending[key]; ok && cur.due <= due {
		return
	}
	t.seq++
	entry := pendingTick{due: due, seq: t.seq}
	t.pending[key] = entry
	heap.Push(&t.queue, queuedTick{key: key, pendingTick: entry})
}

// Advance moves time forward by one tick and returns every tick now due.
func (t *TickScheduler) Advance() []Tick {
	t.now++
	var out []Tick
	for t.queue.Len() > 0 && t.queue[0].due <= t.now {
		q := heap.Pop(&t.queue).(queuedTick)
		if cur, ok := t.pending[q.key]; !ok || cur != q.pendingTick {
			// Superseded by an earlier schedule.
			continue
		}
		delete(t.pending, q.key)
		out = append(out, Tick{Pos: q.key.pos, Liquid: q.key.liquid, Due: q.due})
	}
	return out
}

// For returns a liquid.Scheduler that arms ticks for l.
func (t *TickScheduler) For(l *liquid.Liquid) liquid.Scheduler {
	return liquidScheduler{t: t, name: l.Name()}
}

type liquidScheduler struct {
	t    *TickScheduler
	name string
}

func (s liquidScheduler) Schedule(pos cube.Pos, delay int) { s.t.Schedule(s.name, pos, delay) }

type queuedTick struct {
	key tickKey
	pendingTick
}

type tickQueue []queuedTick

func (q tickQueue) Len() int { return len(q) }

func (q tickQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}

func (q tickQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *tickQueue) Push(x any) { *q = append(*q, x.(queuedTick)) }

func (q *tickQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

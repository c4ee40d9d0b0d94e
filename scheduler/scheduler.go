package scheduler

import (
	"sync/atomic"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-genmidi/midi"
)

// DefaultCapacity bounds the queue when New is given a non-positive size
const DefaultCapacity = 4096

// ScheduledEvent is a message waiting for its absolute sample time
type ScheduledEvent struct {
	Message  gomidi.Message
	Sample   int64
	Priority int
	seq      uint64
}

// before orders by time, then priority (higher first), then insertion
func before(a, b *ScheduledEvent) bool {
	if a.Sample != b.Sample {
		return a.Sample < b.Sample
	}
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.seq < b.seq
}

// Scheduler is a time-ordered event queue drained once per buffer.
// It is owned by the real-time thread; only Dropped and Len are safe to
// call from elsewhere.
type Scheduler struct {
	heap     []ScheduledEvent
	capacity int
	seq      uint64

	size    atomic.Int64
	dropped atomic.Uint64
}

// New returns a scheduler holding at most capacity pending events
func New(capacity int) *Scheduler {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Scheduler{
		heap:     make([]ScheduledEvent, 0, capacity),
		capacity: capacity,
	}
}

// Schedule queues msg for the given absolute sample. When the queue is full
// one event is dropped and counted: the lowest-priority pending event that
// is not a note-off, latest first, or msg itself if it ranks below that.
// Note-offs are only dropped when nothing else is pending.
func (s *Scheduler) Schedule(msg gomidi.Message, sample int64, priority int) {
	ev := ScheduledEvent{Message: msg, Sample: sample, Priority: priority, seq: s.seq}
	s.seq++

	if len(s.heap) >= s.capacity {
		s.evictFor(ev)
		return
	}
	s.heap = append(s.heap, ev)
	s.up(len(s.heap) - 1)
	s.size.Store(int64(len(s.heap)))
}

func releases(ev *ScheduledEvent) bool { return ev.Priority == midi.PriorityNoteOff }

// dropsFirst reports whether a goes before b when the queue overflows
func dropsFirst(a, b *ScheduledEvent) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return before(b, a)
}

func (s *Scheduler) evictFor(ev ScheduledEvent) {
	s.dropped.Add(1)
	victim := -1
	for i := range s.heap {
		if releases(&s.heap[i]) {
			continue
		}
		if victim < 0 || dropsFirst(&s.heap[i], &s.heap[victim]) {
			victim = i
		}
	}
	if victim >= 0 {
		if !releases(&ev) && dropsFirst(&ev, &s.heap[victim]) {
			return
		}
	} else {
		// only note-offs pending
		if !releases(&ev) {
			return
		}
		victim = 0
		for i := 1; i < len(s.heap); i++ {
			if before(&s.heap[victim], &s.heap[i]) {
				victim = i
			}
		}
		if before(&s.heap[victim], &ev) {
			return
		}
	}
	s.heap[victim] = ev
	s.up(victim)
	s.down(victim)
}

// ScheduleNoteOn queues a note-on at note-on priority
func (s *Scheduler) ScheduleNoteOn(channel, key, velocity uint8, sample int64) {
	s.Schedule(gomidi.NoteOn(channel, key, velocity), sample, midi.PriorityNoteOn)
}

// ScheduleNoteOff queues a note-off at note-off priority
func (s *Scheduler) ScheduleNoteOff(channel, key uint8, sample int64) {
	s.Schedule(gomidi.NoteOff(channel, key), sample, midi.PriorityNoteOff)
}

// ScheduleNote queues a note-on at start and its note-off duration samples later
func (s *Scheduler) ScheduleNote(channel, key, velocity uint8, start, duration int64) {
	if duration < 1 {
		duration = 1
	}
	s.ScheduleNoteOn(channel, key, velocity, start)
	s.ScheduleNoteOff(channel, key, start+duration)
}

// ScheduleControl queues any non-note message at control priority
func (s *Scheduler) ScheduleControl(msg gomidi.Message, sample int64) {
	s.Schedule(msg, sample, midi.PriorityControl)
}

// ProcessEvents appends every event due before currentSample+bufferSize to
// out, in order, with offsets clamped into [0, bufferSize-1].
func (s *Scheduler) ProcessEvents(currentSample int64, out []midi.Event, bufferSize int) []midi.Event {
	if bufferSize <= 0 {
		return out
	}
	end := currentSample + int64(bufferSize)
	for len(s.heap) > 0 && s.heap[0].Sample < end {
		ev := s.pop()
		offset := ev.Sample - currentSample
		if offset < 0 {
			offset = 0
		}
		if offset > int64(bufferSize-1) {
			offset = int64(bufferSize - 1)
		}
		out = append(out, midi.Event{Offset: int(offset), Message: ev.Message})
	}
	s.size.Store(int64(len(s.heap)))
	return out
}

// ClearAll drops every pending event
func (s *Scheduler) ClearAll() {
	clear(s.heap)
	s.heap = s.heap[:0]
	s.size.Store(0)
}

// ClearFutureEvents drops every event at or after fromSample
func (s *Scheduler) ClearFutureEvents(fromSample int64) {
	kept := s.heap[:0]
	for _, ev := range s.heap {
		if ev.Sample < fromSample {
			kept = append(kept, ev)
		}
	}
	clear(s.heap[len(kept):])
	s.heap = kept
	for i := len(s.heap)/2 - 1; i >= 0; i-- {
		s.down(i)
	}
	s.size.Store(int64(len(s.heap)))
}

// Len returns the number of pending events
func (s *Scheduler) Len() int { return int(s.size.Load()) }

// Dropped returns how many events were lost to overflow
func (s *Scheduler) Dropped() uint64 { return s.dropped.Load() }

// Peek returns the next event without removing it
func (s *Scheduler) Peek() (ScheduledEvent, bool) {
	if len(s.heap) == 0 {
		return ScheduledEvent{}, false
	}
	return s.heap[0], true
}

func (s *Scheduler) pop() ScheduledEvent {
	n := len(s.heap) - 1
	top := s.heap[0]
	s.heap[0] = s.heap[n]
	s.heap[n] = ScheduledEvent{}
	s.heap = s.heap[:n]
	if n > 0 {
		s.down(0)
	}
	return top
}

func (s *Scheduler) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !before(&s.heap[i], &s.heap[parent]) {
			break
		}
		s.heap[i], s.heap[parent] = s.heap[parent], s.heap[i]
		i = parent
	}
}

func (s *Scheduler) down(i int) {
	n := len(s.heap)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		child := l
		if r := l + 1; r < n && before(&s.heap[r], &s.heap[l]) {
			child = r
		}
		if !before(&s.heap[child], &s.heap[i]) {
			return
		}
		s.heap[i], s.heap[child] = s.heap[child], s.heap[i]
		i = child
	}
}

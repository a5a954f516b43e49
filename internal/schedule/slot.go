// Package schedule owns the time-of-day task table and the runner that
// executes scrape tasks against it.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Task names a scrape pipeline a slot can trigger.
type Task string

const (
	// TaskYahoo runs the ticker fan-out against the news search endpoint.
	TaskYahoo Task = "YAHOO"
	// TaskAlt runs the alternate-source feed pipeline.
	TaskAlt Task = "ALT"
)

// admissionWindow is how far from its wall-clock time a slot is still
// admitted in admission mode.
const admissionWindow = 15 * time.Minute

// Slot is one schedule entry: a wall-clock time, the task to run and a
// ran flag that stays true until day rollover.
type Slot struct {
	Time string // "HH:MM"
	Task Task

	mu  sync.Mutex
	ran bool
}

// Ran reports whether the slot already executed today.
func (s *Slot) Ran() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ran
}

// MarkRan flips the slot to done for the rest of the day.
func (s *Slot) MarkRan() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ran = true
}

func (s *Slot) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ran = false
}

// minuteOfDay converts "HH:MM" to hour*60+minute.
func minuteOfDay(clock string) (int, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("bad slot time %q", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("bad slot hour %q", clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("bad slot minute %q", clock)
	}
	return hour*60 + minute, nil
}

// ParseSpec parses one "HH:MM=TASK" entry.
func ParseSpec(spec string) (*Slot, error) {
	parts := strings.SplitN(spec, "=", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("bad slot spec %q, want HH:MM=TASK", spec)
	}
	clock := strings.TrimSpace(parts[0])
	if _, err := minuteOfDay(clock); err != nil {
		return nil, err
	}
	task := Task(strings.ToUpper(strings.TrimSpace(parts[1])))
	if task != TaskYahoo && task != TaskAlt {
		return nil, fmt.Errorf("bad slot task %q, want YAHOO or ALT", parts[1])
	}
	return &Slot{Time: clock, Task: task}, nil
}

// DefaultSlotSpecs is the built-in daily schedule: Yahoo runs through the
// trading day, the alternate source fills the gaps.
func DefaultSlotSpecs() []string {
	return []string{
		"01:00=ALT",
		"05:00=YAHOO",
		"09:00=YAHOO",
		"13:00=ALT",
		"15:00=YAHOO",
		"19:00=YAHOO",
		"22:00=ALT",
	}
}

// Table is the ordered slot collection for one day. Slots keep the order
// their specs were given in; Regenerate resets every ran flag at day
// rollover.
type Table struct {
	mu    sync.Mutex
	slots []*Slot
}

// NewTable builds a Table from specs, rejecting the whole list on the
// first bad entry.
func NewTable(specs []string) (*Table, error) {
	slots := make([]*Slot, 0, len(specs))
	for _, spec := range specs {
		slot, err := ParseSpec(spec)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return &Table{slots: slots}, nil
}

// Slots returns the slots in table order. The slice is a copy; the slots
// themselves are shared.
func (t *Table) Slots() []*Slot {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Slot, len(t.slots))
	copy(out, t.slots)
	return out
}

// Regenerate resets every slot for a new day.
func (t *Table) Regenerate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, slot := range t.slots {
		slot.reset()
	}
}

// CanRun reports whether the slot is admitted at now: within fifteen
// minutes of its wall-clock time and not yet ran. Comparison uses
// hour*60+minute on both sides, so the window does not wrap midnight.
func CanRun(slot *Slot, now time.Time) bool {
	if slot.Ran() {
		return false
	}
	slotMinute, err := minuteOfDay(slot.Time)
	if err != nil {
		return false
	}
	nowMinute := now.Hour()*60 + now.Minute()

	diff := nowMinute - slotMinute
	if diff < 0 {
		diff = -diff
	}
	return time.Duration(diff)*time.Minute <= admissionWindow
}

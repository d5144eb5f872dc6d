package sched

import "time"

// slotState tags a worker slot as schedulable or done. Finished slots remain
// in the table so registration order never changes after launch; the
// sequencer filters them out instead of treating absence as a sentinel.
type slotState int

const (
	slotActive slotState = iota
	slotFinished
)

// slot is one worker's entry in the slot table: its gate, skip set, step
// counter, and lifecycle tag. step and state are written only while holding
// the run mutex so the sequencer and the yield protocol observe them
// consistently; the skip set is immutable after registration.
type slot struct {
	ordinal int
	id      string
	gate    gate
	skip    map[int]struct{}
	step    int
	state   slotState

	// floorSince is when this worker last received the floor, used for the
	// floor-hold histogram. Written under the run mutex by the releasing
	// worker, read under the run mutex by the owner on its next yield.
	floorSince time.Time
}

// table is the worker slot table: the registration-order sequence of slots.
// The order is fixed before any worker starts and is the rotation order for
// the entire run.
type table struct {
	slots []*slot
}

// register appends a slot for a new worker and returns it. skipSteps lists
// the step indices at which this worker's yield calls must not hand off.
func (t *table) register(id string, skipSteps []int) *slot {
	sl := &slot{
		ordinal: len(t.slots),
		id:      id,
		gate:    newGate(),
		skip:    make(map[int]struct{}, len(skipSteps)),
		state:   slotActive,
	}
	for _, n := range skipSteps {
		sl.skip[n] = struct{}{}
	}
	t.slots = append(t.slots, sl)
	return sl
}

// running reports the number of slots still tagged Active.
func (t *table) running() int {
	n := 0
	for _, sl := range t.slots {
		if sl.state == slotActive {
			n++
		}
	}
	return n
}

func (t *table) len() int { return len(t.slots) }

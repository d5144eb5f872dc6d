package sched

// sequencer is the turn sequencer: a cyclic cursor over the slot table. The
// cursor only moves forward, wraps at the end of the table, and restarts from
// the beginning when exhausted. Finished slots are skipped without consuming
// a turn.
//
// All access must hold the run mutex, and callers must have verified that at
// least one Active slot exists; nextActive would otherwise never terminate.
type sequencer struct {
	table  *table
	cursor int
}

// nextActive advances the cursor until it lands on an Active slot and returns
// that slot. The cursor is left one past the returned slot, so consecutive
// calls walk the table round-robin.
func (q *sequencer) nextActive() *slot {
	for {
		if q.cursor >= q.table.len() {
			q.cursor = 0
		}
		sl := q.table.slots[q.cursor]
		q.cursor++
		if sl.state == slotActive {
			return sl
		}
	}
}

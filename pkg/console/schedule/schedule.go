// Cerberus Console
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Cerberus Console.
//
// Cerberus Console is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Cerberus Console is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Cerberus Console.  If not, see <http://www.gnu.org/licenses/>.

// Package schedule is a deterministic virtual-time task queue.
//
// Tasks fire in (due time, insertion order) when the owner advances the
// scheduler clock. Callbacks run synchronously on the goroutine calling
// AdvanceTo and observe Now() equal to their own due time, so stages
// chained from a callback are relative to when that stage fired rather
// than to when the wall clock was sampled.
package schedule

import (
	"container/heap"
	"time"
)

// TaskID identifies a scheduled task.
type TaskID uint64

// Group tags related tasks so they can be cancelled together.
type Group string

type task struct {
	due      time.Time
	once     func(now time.Time)
	repeat   func(now time.Time) bool
	group    Group
	interval time.Duration
	seq      uint64
	id       TaskID
	index    int
	dead     bool
}

type queue []*task

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *queue) Push(x any) {
	t, ok := x.(*task)
	if !ok {
		return
	}
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

// Scheduler owns the virtual clock and pending tasks. It is not safe for
// concurrent use.
type Scheduler struct {
	now    time.Time
	live   map[TaskID]*task
	queue  queue
	seq    uint64
	nextID TaskID
}

// New returns a scheduler whose clock starts at start.
func New(start time.Time) *Scheduler {
	return &Scheduler{
		now:  start,
		live: make(map[TaskID]*task),
	}
}

// Now returns the scheduler's virtual time.
func (s *Scheduler) Now() time.Time {
	return s.now
}

func (s *Scheduler) push(t *task) {
	s.seq++
	t.seq = s.seq
	heap.Push(&s.queue, t)
}

func (s *Scheduler) add(t *task) TaskID {
	s.nextID++
	t.id = s.nextID
	s.live[t.id] = t
	s.push(t)
	return t.id
}

// After schedules fn to run once, d after the current virtual time.
func (s *Scheduler) After(d time.Duration, group Group, fn func(now time.Time)) TaskID {
	return s.add(&task{
		due:   s.now.Add(max(d, 0)),
		group: group,
		once:  fn,
	})
}

// Every schedules fn to run every interval, first at now+interval. The
// task stops when fn returns false or when it is cancelled.
func (s *Scheduler) Every(interval time.Duration, group Group, fn func(now time.Time) bool) TaskID {
	if interval <= 0 {
		interval = time.Millisecond
	}
	return s.add(&task{
		due:      s.now.Add(interval),
		group:    group,
		interval: interval,
		repeat:   fn,
	})
}

// Cancel stops a task. It reports whether the task was still pending.
func (s *Scheduler) Cancel(id TaskID) bool {
	t, ok := s.live[id]
	if !ok {
		return false
	}
	t.dead = true
	delete(s.live, id)
	return true
}

// CancelGroup stops every pending task in group and returns how many were
// cancelled.
func (s *Scheduler) CancelGroup(group Group) int {
	n := 0
	for id, t := range s.live {
		if t.group == group {
			t.dead = true
			delete(s.live, id)
			n++
		}
	}
	return n
}

// Pending returns the number of live tasks.
func (s *Scheduler) Pending() int {
	return len(s.live)
}

// PendingIn returns the number of live tasks in group.
func (s *Scheduler) PendingIn(group Group) int {
	n := 0
	for _, t := range s.live {
		if t.group == group {
			n++
		}
	}
	return n
}

// Next returns the due time of the earliest live task.
func (s *Scheduler) Next() (time.Time, bool) {
	s.dropDead()
	if len(s.queue) == 0 {
		return time.Time{}, false
	}
	return s.queue[0].due, true
}

func (s *Scheduler) dropDead() {
	for len(s.queue) > 0 && s.queue[0].dead {
		heap.Pop(&s.queue)
	}
}

// AdvanceTo fires every task due at or before t, in order, then sets the
// clock to t. Tasks scheduled by callbacks fire in the same call when
// they fall due before t. A t earlier than Now is ignored. It returns the
// number of callbacks run.
func (s *Scheduler) AdvanceTo(t time.Time) int {
	if t.Before(s.now) {
		return 0
	}

	fired := 0
	for {
		s.dropDead()
		if len(s.queue) == 0 || s.queue[0].due.After(t) {
			break
		}

		next, ok := heap.Pop(&s.queue).(*task)
		if !ok {
			break
		}
		s.now = next.due
		fired++

		if next.once != nil {
			next.dead = true
			delete(s.live, next.id)
			next.once(s.now)
			continue
		}

		keep := next.repeat(s.now)
		if !keep || next.dead {
			next.dead = true
			delete(s.live, next.id)
			continue
		}
		next.due = next.due.Add(next.interval)
		s.push(next)
	}

	s.now = t
	return fired
}

// Advance moves the clock forward by d.
func (s *Scheduler) Advance(d time.Duration) int {
	return s.AdvanceTo(s.now.Add(d))
}

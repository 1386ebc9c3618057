// Package task schedules the cooperative, frame-stepped work of a running
// game: script threads, the active cutscene and timed callbacks.
package task

// Task is a unit of cooperative work advanced once per frame.
type Task interface {
	// Step advances the task by elapsed seconds and reports whether it is still running.
	Step(elapsed float64) bool
	// Global tasks survive room transitions.
	Global() bool
	// Stop ends the task. A stopped task is never stepped again.
	Stop()
	Stopped() bool
}

type entry struct {
	id   int
	task Task
}

// NoOverrideDuration is how long, in seconds, the "cannot skip" indicator
// stays visible after a refused cutscene skip.
const NoOverrideDuration = 2.0

// Scheduler owns the live task list and the active cutscene.
//
// Tasks started during a frame are staged and spliced into the live list at
// the start of the next Update, so a task never runs in the frame it was
// started in.
type Scheduler struct {
	nextID     int
	live       []entry
	pending    []entry
	cutscene   *Cutscene
	cutsceneID int
	noOverride float64
}

// NewScheduler returns an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{nextID: 1, noOverride: NoOverrideDuration}
}

func (s *Scheduler) newID() int {
	id := s.nextID
	s.nextID++
	return id
}

// Start stages t to run from the next Update.
//
// Precondition: t must be non-nil.
// Postcondition: Returns the task id, unique for the scheduler's lifetime.
func (s *Scheduler) Start(t Task) int {
	id := s.newID()
	s.pending = append(s.pending, entry{id: id, task: t})
	return id
}

// Stop stops the task with the given id, live, staged, or the cutscene.
//
// Postcondition: Returns false when no running task has that id.
func (s *Scheduler) Stop(id int) bool {
	if s.cutscene != nil && s.cutsceneID == id && !s.cutscene.Stopped() {
		s.cutscene.Stop()
		return true
	}
	for _, list := range [][]entry{s.live, s.pending} {
		for _, e := range list {
			if e.id == id && !e.task.Stopped() {
				e.task.Stop()
				return true
			}
		}
	}
	return false
}

// StopLocal stops every non-global live or staged task. The cutscene is not affected.
//
// Postcondition: Returns the number of tasks stopped.
func (s *Scheduler) StopLocal() int {
	n := 0
	for _, list := range [][]entry{s.live, s.pending} {
		for _, e := range list {
			if !e.task.Global() && !e.task.Stopped() {
				e.task.Stop()
				n++
			}
		}
	}
	return n
}

// Running reports whether the task with the given id has not finished.
func (s *Scheduler) Running(id int) bool {
	if s.cutscene != nil && s.cutsceneID == id {
		return !s.cutscene.Stopped()
	}
	for _, list := range [][]entry{s.live, s.pending} {
		for _, e := range list {
			if e.id == id {
				return !e.task.Stopped()
			}
		}
	}
	return false
}

// Live returns the number of live or staged tasks that have not stopped.
func (s *Scheduler) Live() int {
	n := 0
	for _, list := range [][]entry{s.live, s.pending} {
		for _, e := range list {
			if !e.task.Stopped() {
				n++
			}
		}
	}
	return n
}

// Prune drops stopped tasks.
func (s *Scheduler) Prune() {
	s.live = prune(s.live)
	s.pending = prune(s.pending)
}

func prune(list []entry) []entry {
	kept := list[:0]
	for _, e := range list {
		if !e.task.Stopped() {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(list); i++ {
		list[i] = entry{}
	}
	return kept
}

// Update splices the tasks staged before this call into the live list, then
// advances the cutscene and steps those live tasks once. Tasks started while
// Update runs, by the cutscene or by a live task, stay staged until the next
// call.
//
// Precondition: elapsed >= 0.
// Postcondition: Finished tasks are removed.
func (s *Scheduler) Update(elapsed float64) {
	s.live = append(s.live, s.pending...)
	s.pending = nil
	live := s.live

	s.noOverride += elapsed
	if c := s.cutscene; c != nil {
		if !c.Step(elapsed) && s.cutscene == c {
			s.cutscene = nil
			s.cutsceneID = 0
		}
	}

	for _, e := range live {
		if e.task.Stopped() {
			continue
		}
		if !e.task.Step(elapsed) {
			e.task.Stop()
		}
	}
	s.live = prune(s.live)
}

// StartCutscene makes c the active cutscene. A running cutscene is replaced
// and stopped.
//
// Precondition: c must be non-nil.
// Postcondition: Returns the cutscene id.
func (s *Scheduler) StartCutscene(c *Cutscene) int {
	if s.cutscene != nil && !s.cutscene.Stopped() {
		s.cutscene.Stop()
	}
	s.cutscene = c
	s.cutsceneID = s.newID()
	return s.cutsceneID
}

// InCutscene reports whether a cutscene is running.
func (s *Scheduler) InCutscene() bool {
	return s.cutscene != nil && !s.cutscene.Stopped()
}

// SkipCutscene overrides the running cutscene when it declares an override.
// Otherwise it opens the "cannot skip" indicator window.
//
// Postcondition: Returns true when an override ran.
func (s *Scheduler) SkipCutscene() bool {
	if s.cutscene != nil && s.cutscene.HasOverride() && !s.cutscene.Stopped() {
		s.cutscene.Override()
		return true
	}
	s.noOverride = 0
	return false
}

// NoOverrideVisible reports whether the "cannot skip" indicator is shown.
func (s *Scheduler) NoOverrideVisible() bool { return s.noOverride < NoOverrideDuration }

package task

// CutsceneHooks are invoked at the boundaries of a cutscene.
type CutsceneHooks struct {
	// Begin runs before the first step, typically disabling input.
	Begin func()
	// End runs once when the cutscene finishes, is overridden or stopped.
	End func()
}

// Cutscene runs a body task with player input suspended. An optional
// override runs instead of the remaining body when the player skips.
type Cutscene struct {
	body     Task
	override func()
	hooks    CutsceneHooks
	started  bool
	stopped  bool
}

// NewCutscene wraps body.
//
// Precondition: body must be non-nil. override may be nil.
func NewCutscene(body Task, override func(), hooks CutsceneHooks) *Cutscene {
	return &Cutscene{body: body, override: override, hooks: hooks}
}

// HasOverride reports whether the cutscene can be skipped.
func (c *Cutscene) HasOverride() bool { return c.override != nil }

// Override stops the body and runs the override.
//
// Postcondition: The cutscene is stopped.
func (c *Cutscene) Override() {
	if c.stopped {
		return
	}
	c.body.Stop()
	if c.override != nil {
		c.override()
	}
	c.Stop()
}

// Global is always true; cutscenes survive room transitions.
func (c *Cutscene) Global() bool { return true }

// Stopped reports whether the cutscene has finished.
func (c *Cutscene) Stopped() bool { return c.stopped }

// Stop ends the cutscene and runs the End hook once.
func (c *Cutscene) Stop() {
	if c.stopped {
		return
	}
	c.stopped = true
	c.body.Stop()
	if c.started && c.hooks.End != nil {
		c.hooks.End()
	}
}

// Step runs Begin on the first call, then steps the body.
//
// Postcondition: Returns false once the body has finished.
func (c *Cutscene) Step(elapsed float64) bool {
	if c.stopped {
		return false
	}
	if !c.started {
		c.started = true
		if c.hooks.Begin != nil {
			c.hooks.Begin()
		}
	}
	if !c.body.Step(elapsed) {
		c.Stop()
		return false
	}
	return true
}

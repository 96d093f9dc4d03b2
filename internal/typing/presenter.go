// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package typing implements the typewriter reveal for streamed responses.
// The presenter is a pure state machine driven by an external tick; it
// owns no timers and knows nothing about rendering.
package typing

// DefaultCharsPerTick is how many characters one tick reveals.
const DefaultCharsPerTick = 2

// =============================================================================
// PRESENTER
// =============================================================================

// Presenter reveals a message character by character, thinking channel
// first, then content. Targets only ever grow during a stream; the two
// cursors chase them at a fixed number of runes per tick. When both
// cursors catch up the presenter idles until a target grows again.
// Clearing both targets resets the cursors for the next message.
type Presenter struct {
	thinkingTarget []rune
	contentTarget  []rune
	thinkingShown  int
	contentShown   int
	charsPerTick   int
}

// New creates a presenter revealing charsPerTick runes per tick.
func New(charsPerTick int) *Presenter {
	if charsPerTick <= 0 {
		charsPerTick = DefaultCharsPerTick
	}
	return &Presenter{charsPerTick: charsPerTick}
}

// SetTargets updates the reveal targets with the latest accumulated
// snapshot. Growing a target resumes the animation; clearing both resets
// the presenter for a new message. A target that shrank (which a
// well-behaved stream never produces) clamps the cursor instead of
// replaying.
func (p *Presenter) SetTargets(thinking, content string) {
	if thinking == "" && content == "" {
		p.Reset()
		return
	}

	p.thinkingTarget = []rune(thinking)
	p.contentTarget = []rune(content)

	if p.thinkingShown > len(p.thinkingTarget) {
		p.thinkingShown = len(p.thinkingTarget)
	}
	if p.contentShown > len(p.contentTarget) {
		p.contentShown = len(p.contentTarget)
	}
}

// Tick advances the reveal by one step. The budget is spent on the
// thinking channel until it is fully revealed, then on content; a single
// tick may finish one and start the other. Returns true if anything
// became visible.
func (p *Presenter) Tick() bool {
	budget := p.charsPerTick
	advanced := false

	if p.thinkingShown < len(p.thinkingTarget) {
		step := min(budget, len(p.thinkingTarget)-p.thinkingShown)
		p.thinkingShown += step
		budget -= step
		advanced = step > 0
	}

	// Content starts only once thinking is fully revealed.
	if p.thinkingShown == len(p.thinkingTarget) && budget > 0 && p.contentShown < len(p.contentTarget) {
		step := min(budget, len(p.contentTarget)-p.contentShown)
		p.contentShown += step
		advanced = advanced || step > 0
	}

	return advanced
}

// Visible returns the currently revealed thinking and content.
func (p *Presenter) Visible() (thinking, content string) {
	return string(p.thinkingTarget[:p.thinkingShown]), string(p.contentTarget[:p.contentShown])
}

// CaughtUp reports whether both cursors have reached their targets.
// A caught-up presenter has nothing to animate until a target grows.
func (p *Presenter) CaughtUp() bool {
	return p.thinkingShown == len(p.thinkingTarget) && p.contentShown == len(p.contentTarget)
}

// SkipToEnd reveals everything immediately.
func (p *Presenter) SkipToEnd() {
	p.thinkingShown = len(p.thinkingTarget)
	p.contentShown = len(p.contentTarget)
}

// Reset clears targets and cursors for the next message.
func (p *Presenter) Reset() {
	p.thinkingTarget = nil
	p.contentTarget = nil
	p.thinkingShown = 0
	p.contentShown = 0
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

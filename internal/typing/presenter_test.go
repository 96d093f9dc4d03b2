// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package typing

import "testing"

// =============================================================================
// PRESENTER TESTS
// =============================================================================

func TestPresenterRevealsThinkingBeforeContent(t *testing.T) {
	p := New(2)
	p.SetTargets("abcd", "xyz")

	p.Tick() // ab
	thinking, content := p.Visible()
	if thinking != "ab" || content != "" {
		t.Errorf("Expected thinking 'ab' and no content, got %q / %q", thinking, content)
	}

	p.Tick() // abcd
	p.Tick() // xy
	thinking, content = p.Visible()
	if thinking != "abcd" {
		t.Errorf("Expected full thinking before content, got %q", thinking)
	}
	if content != "xy" {
		t.Errorf("Expected content 'xy', got %q", content)
	}
}

func TestPresenterSpillsBudgetAcrossChannels(t *testing.T) {
	p := New(4)
	p.SetTargets("ab", "cdef")

	p.Tick() // finishes thinking (2), starts content (2)
	thinking, content := p.Visible()
	if thinking != "ab" || content != "cd" {
		t.Errorf("Expected spillover into content, got %q / %q", thinking, content)
	}
}

func TestPresenterStopsWhenCaughtUp(t *testing.T) {
	p := New(10)
	p.SetTargets("", "hi")

	if !p.Tick() {
		t.Error("Expected first tick to advance")
	}
	if !p.CaughtUp() {
		t.Error("Expected presenter caught up")
	}
	if p.Tick() {
		t.Error("Caught-up presenter should not advance")
	}
}

func TestPresenterResumesWhenTargetGrows(t *testing.T) {
	p := New(10)
	p.SetTargets("", "hello")
	p.Tick()

	if !p.CaughtUp() {
		t.Fatal("Expected caught up after first reveal")
	}

	p.SetTargets("", "hello world")
	if p.CaughtUp() {
		t.Error("Growing target should resume animation")
	}
	p.Tick()
	if _, content := p.Visible(); content != "hello world" {
		t.Errorf("Expected resumed reveal, got %q", content)
	}
}

func TestPresenterLateThinkingGrowth(t *testing.T) {
	// Thinking that grows after content started must finish revealing
	// before content advances further.
	p := New(2)
	p.SetTargets("ab", "cdef")
	p.Tick() // ab revealed
	p.Tick() // cd revealed

	p.SetTargets("abXY", "cdef")
	p.Tick()
	thinking, content := p.Visible()
	if thinking != "abXY" {
		t.Errorf("Expected late thinking revealed first, got %q", thinking)
	}
	if content != "cd" {
		t.Errorf("Content should not advance while thinking catches up, got %q", content)
	}
}

func TestPresenterClearResets(t *testing.T) {
	p := New(5)
	p.SetTargets("think", "content")
	p.Tick()

	p.SetTargets("", "")
	thinking, content := p.Visible()
	if thinking != "" || content != "" {
		t.Errorf("Expected cleared presenter, got %q / %q", thinking, content)
	}
	if !p.CaughtUp() {
		t.Error("Cleared presenter should be caught up")
	}

	// Next message starts from scratch
	p.SetTargets("", "next")
	p.Tick()
	if _, content := p.Visible(); content != "next" {
		t.Errorf("Expected fresh reveal after reset, got %q", content)
	}
}

func TestPresenterSkipToEnd(t *testing.T) {
	p := New(1)
	p.SetTargets("abc", "defg")
	p.Tick()

	p.SkipToEnd()
	thinking, content := p.Visible()
	if thinking != "abc" || content != "defg" {
		t.Errorf("Expected everything revealed, got %q / %q", thinking, content)
	}
}

func TestPresenterUnicodeSafety(t *testing.T) {
	p := New(1)
	p.SetTargets("", "héllo")

	p.Tick()
	p.Tick()
	if _, content := p.Visible(); content != "hé" {
		t.Errorf("Expected rune-safe reveal, got %q", content)
	}
}

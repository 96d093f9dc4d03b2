// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGet(t *testing.T) {
	s := openTestStore(t)

	if err := s.Set(KeySelectedModel, "qwen3"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, ok, err := s.Get(KeySelectedModel)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok || value != "qwen3" {
		t.Errorf("Expected 'qwen3', got %q (ok=%v)", value, ok)
	}
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Get("nonexistent")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("Expected missing key to report ok=false")
	}

	if got := s.GetDefault("nonexistent", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %q", got)
	}
}

func TestSetOverwrites(t *testing.T) {
	s := openTestStore(t)

	s.Set(KeyToken, "first")
	s.Set(KeyToken, "second")

	value, _, _ := s.Get(KeyToken)
	if value != "second" {
		t.Errorf("Expected overwrite, got %q", value)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	s.Set(KeyToken, "tok")
	if err := s.Delete(KeyToken); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, ok, _ := s.Get(KeyToken)
	if ok {
		t.Error("Expected key gone after delete")
	}

	// Deleting again is fine
	if err := s.Delete(KeyToken); err != nil {
		t.Errorf("Deleting absent key should not error: %v", err)
	}
}

func TestBoolRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if got := s.GetBool(KeyRememberMe, true); got != true {
		t.Error("Expected fallback for unset bool")
	}

	s.SetBool(KeyRememberMe, false)
	if s.GetBool(KeyRememberMe, true) {
		t.Error("Expected stored false")
	}

	s.SetBool(KeyRememberMe, true)
	if !s.GetBool(KeyRememberMe, false) {
		t.Error("Expected stored true")
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	s.Set(KeyUsername, "kurisu")
	s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer s2.Close()

	value, ok, _ := s2.Get(KeyUsername)
	if !ok || value != "kurisu" {
		t.Errorf("Expected persisted value, got %q (ok=%v)", value, ok)
	}
}

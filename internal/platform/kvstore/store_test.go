package kvstore

import (
	"testing"
)

func TestMemory_GetSetDelete(t *testing.T) {
	m := NewMemory()
	ctx := t.Context()

	if _, ok, err := m.Get(ctx, ScopeSession, "v1", "k"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := m.Set(ctx, ScopeSession, "v1", "k", []byte("hello")); err != nil {
		t.Fatalf("set: %v", err)
	}
	raw, ok, err := m.Get(ctx, ScopeSession, "v1", "k")
	if err != nil || !ok || string(raw) != "hello" {
		t.Fatalf("unexpected get result: %q ok=%v err=%v", raw, ok, err)
	}

	// Scopes are isolated.
	if _, ok, _ := m.Get(ctx, ScopePersistent, "v1", "k"); ok {
		t.Fatalf("expected persistent scope to be empty")
	}

	if err := m.Delete(ctx, ScopeSession, "v1", "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := m.Get(ctx, ScopeSession, "v1", "k"); ok {
		t.Fatalf("expected key deleted")
	}
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	m := NewMemory()
	ctx := t.Context()

	if err := m.Set(ctx, ScopeSession, "v1", "k", []byte("abc")); err != nil {
		t.Fatalf("set: %v", err)
	}
	raw, _, _ := m.Get(ctx, ScopeSession, "v1", "k")
	raw[0] = 'z'

	again, _, _ := m.Get(ctx, ScopeSession, "v1", "k")
	if string(again) != "abc" {
		t.Fatalf("stored value mutated through returned slice: %q", again)
	}
}

func TestMemory_ClearScope(t *testing.T) {
	m := NewMemory()
	ctx := t.Context()

	_ = m.Set(ctx, ScopeSession, "v1", "a", []byte("1"))
	_ = m.Set(ctx, ScopeSession, "v1", "b", []byte("2"))
	_ = m.Set(ctx, ScopePersistent, "v1", "c", []byte("3"))
	_ = m.Set(ctx, ScopeSession, "v2", "a", []byte("4"))

	if err := m.ClearScope(ctx, ScopeSession, "v1"); err != nil {
		t.Fatalf("clear scope: %v", err)
	}

	if _, ok, _ := m.Get(ctx, ScopeSession, "v1", "a"); ok {
		t.Fatalf("expected session scope cleared")
	}
	if _, ok, _ := m.Get(ctx, ScopePersistent, "v1", "c"); !ok {
		t.Fatalf("expected persistent entry to survive")
	}
	if _, ok, _ := m.Get(ctx, ScopeSession, "v2", "a"); !ok {
		t.Fatalf("expected other owner's entry to survive")
	}
}

func TestMemory_Owners(t *testing.T) {
	m := NewMemory()
	ctx := t.Context()

	_ = m.Set(ctx, ScopePersistent, "v1", "draft", []byte("1"))
	_ = m.Set(ctx, ScopePersistent, "v2", "draft", []byte("2"))
	_ = m.Set(ctx, ScopePersistent, "v3", "other", []byte("3"))

	owners, err := m.Owners(ctx, ScopePersistent, "draft")
	if err != nil {
		t.Fatalf("owners: %v", err)
	}
	if len(owners) != 2 {
		t.Fatalf("expected 2 owners, got %v", owners)
	}
}

func TestGetJSON_CorruptEntryDegradesToAbsent(t *testing.T) {
	m := NewMemory()
	ctx := t.Context()

	_ = m.Set(ctx, ScopePersistent, "v1", "draft", []byte("{not json"))

	var out struct {
		Name string `json:"name"`
	}
	ok, err := GetJSON(ctx, m, ScopePersistent, "v1", "draft", &out)
	if err != nil {
		t.Fatalf("expected corruption to degrade, got error: %v", err)
	}
	if ok {
		t.Fatalf("expected corrupt entry to read as absent")
	}

	// The corrupt entry is removed so subsequent writes start clean.
	if _, present, _ := m.Get(ctx, ScopePersistent, "v1", "draft"); present {
		t.Fatalf("expected corrupt entry to be deleted")
	}
}

func TestSetJSONThenGetJSON(t *testing.T) {
	m := NewMemory()
	ctx := t.Context()

	type draft struct {
		Name string `json:"name"`
	}
	if err := SetJSON(ctx, m, ScopePersistent, "v1", "draft", draft{Name: "Spring Invitational"}); err != nil {
		t.Fatalf("set json: %v", err)
	}

	var out draft
	ok, err := GetJSON(ctx, m, ScopePersistent, "v1", "draft", &out)
	if err != nil || !ok {
		t.Fatalf("get json: ok=%v err=%v", ok, err)
	}
	if out.Name != "Spring Invitational" {
		t.Fatalf("unexpected decoded draft: %+v", out)
	}
}

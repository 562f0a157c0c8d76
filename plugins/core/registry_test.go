// ABOUTME: Tests for the resource plugin registry.
// ABOUTME: Validates registration, ordering, duplicate detection, and concurrent access.

package core

import (
	"fmt"
	"sync"
	"testing"
)

// mockPlugin implements the Plugin interface for testing
type mockPlugin struct {
	name string
}

func (m *mockPlugin) Name() string { return m.name }

func (m *mockPlugin) Schema() ResourceSchema {
	return ResourceSchema{Name: m.name, Slug: m.name}
}

// resetRegistry clears the registry for testing
func resetRegistry() {
	mu.Lock()
	defer mu.Unlock()
	registry = make(map[string]Plugin)
}

func TestRegisterAndGet(t *testing.T) {
	resetRegistry()

	Register(&mockPlugin{name: "pets"})

	got, ok := Get("pets")
	if !ok {
		t.Fatal("expected to find 'pets', but it wasn't found")
	}
	if got.Schema().Slug != "pets" {
		t.Errorf("Schema().Slug = %q, want %q", got.Schema().Slug, "pets")
	}

	if _, ok := Get("missing"); ok {
		t.Error("expected Get to return false for unregistered plugin")
	}
}

func TestRegisterDuplicatePanic(t *testing.T) {
	resetRegistry()

	Register(&mockPlugin{name: "duplicate"})

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on duplicate registration, but didn't panic")
		}
	}()

	Register(&mockPlugin{name: "duplicate"})
}

func TestAllAndNamesAreSorted(t *testing.T) {
	resetRegistry()

	for _, name := range []string{"recommendations", "accounts", "pets"} {
		Register(&mockPlugin{name: name})
	}

	want := []string{"accounts", "pets", "recommendations"}

	names := Names()
	all := All()
	if len(names) != len(want) || len(all) != len(want) {
		t.Fatalf("got %d names and %d plugins, want %d", len(names), len(all), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
		if all[i].Name() != want[i] {
			t.Errorf("All()[%d] = %q, want %q", i, all[i].Name(), want[i])
		}
	}
}

func TestEmptyRegistry(t *testing.T) {
	resetRegistry()

	if len(All()) != 0 {
		t.Error("expected empty All() result")
	}
	if len(Names()) != 0 {
		t.Error("expected empty Names() result")
	}
}

func TestConcurrentRegistrationAndReads(t *testing.T) {
	resetRegistry()

	var wg sync.WaitGroup
	pluginCount := 50

	for i := 0; i < pluginCount; i++ {
		wg.Add(2)
		go func(index int) {
			defer wg.Done()
			Register(&mockPlugin{name: fmt.Sprintf("resource-%d", index)})
		}(i)
		go func() {
			defer wg.Done()
			All()
			Names()
			Get("resource-0")
		}()
	}

	wg.Wait()

	if len(Names()) != pluginCount {
		t.Errorf("expected %d plugins after concurrent registration, got %d", pluginCount, len(Names()))
	}
}

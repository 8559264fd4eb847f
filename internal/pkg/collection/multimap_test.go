package collection

import (
	"slices"
	"testing"
)

func TestMultimap_PutKeepsOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		puts     [][2]string
		wantKeys []string
		wantAll  [][2]string
	}{
		{
			name:     "keys in first insertion order",
			puts:     [][2]string{{"b", "1"}, {"a", "2"}, {"b", "3"}},
			wantKeys: []string{"b", "a"},
			wantAll:  [][2]string{{"b", "1"}, {"b", "3"}, {"a", "2"}},
		},
		{
			name:     "duplicate values are kept",
			puts:     [][2]string{{"x", "v"}, {"x", "v"}},
			wantKeys: []string{"x"},
			wantAll:  [][2]string{{"x", "v"}, {"x", "v"}},
		},
		{
			name:     "empty",
			puts:     nil,
			wantKeys: []string{},
			wantAll:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := NewMultimap[string, string]()
			for _, p := range tt.puts {
				m.Put(p[0], p[1])
			}

			if got := m.Keys(); !slices.Equal(got, tt.wantKeys) {
				t.Errorf("Keys() = %v, want %v", got, tt.wantKeys)
			}

			var all [][2]string
			for k, v := range m.All {
				all = append(all, [2]string{k, v})
			}
			if !slices.Equal(all, tt.wantAll) {
				t.Errorf("All() = %v, want %v", all, tt.wantAll)
			}

			if m.Len() != len(tt.puts) {
				t.Errorf("Len() = %d, want %d", m.Len(), len(tt.puts))
			}
		})
	}
}

func TestMultimap_RemoveFirstOccurrence(t *testing.T) {
	t.Parallel()

	m := NewMultimap[string, *int]()
	one := 1
	m.Put("dep", nil)
	m.Put("dep", nil)

	if !m.Remove("dep", nil) {
		t.Fatal("Remove() = false, want true")
	}
	m.Put("dep", &one)

	got := m.Get("dep")
	if len(got) != 2 || got[0] != nil || got[1] != &one {
		t.Errorf("Get() = %v, want [nil %p]", got, &one)
	}

	if m.Remove("missing", nil) {
		t.Error("Remove() on missing key = true, want false")
	}
	if m.Remove("dep", new(int)) {
		t.Error("Remove() of absent value = true, want false")
	}
}

func TestMultimap_KeySurvivesEmptyValues(t *testing.T) {
	t.Parallel()

	m := NewMultimap[string, string]()
	m.Put("k", "v")
	m.Remove("k", "v")

	if !m.ContainsKey("k") {
		t.Error("ContainsKey() = false after removing last value, want true")
	}
	if m.Count("k") != 0 {
		t.Errorf("Count() = %d, want 0", m.Count("k"))
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
	if got := m.Get("absent"); got != nil {
		t.Errorf("Get(absent) = %v, want nil", got)
	}
}

func TestMultimap_AllStopsEarly(t *testing.T) {
	t.Parallel()

	m := NewMultimap[int, int]()
	m.Put(1, 10)
	m.Put(1, 11)
	m.Put(2, 20)

	var visited int
	for range m.All {
		visited++
		if visited == 2 {
			break
		}
	}

	if visited != 2 {
		t.Errorf("visited %d pairs, want 2", visited)
	}
}

package script

import (
	"errors"
	"testing"
)

func TestParseDuplicatePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    DuplicatePolicy
		wantErr bool
	}{
		{"", DuplicateReject, false},
		{"reject", DuplicateReject, false},
		{"replace", DuplicateReplace, false},
		{"overwrite", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDuplicatePolicy(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDuplicatePolicy(%q) = %q, want error", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseDuplicatePolicy(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger())
	def := &Definition{Name: "greet", Source: "greet.star"}
	if err := r.Register(def, DuplicateReject); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, ok := r.Lookup("greet")
	if !ok || got != def {
		t.Fatalf("Lookup = %v, %v; want the registered definition", got, ok)
	}
	if _, ok := r.Lookup("ghost"); ok {
		t.Error("Lookup(ghost) = true, want false")
	}
}

func TestRegistry_DuplicateReject(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger())
	first := &Definition{Name: "greet", Source: "a.star"}
	second := &Definition{Name: "greet", Source: "b.star"}

	if err := r.Register(first, DuplicateReject); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(second, DuplicateReject); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Register = %v, want ErrDuplicate", err)
	}

	got, _ := r.Lookup("greet")
	if got.Source != "a.star" {
		t.Errorf("Source = %q, want the first registration kept", got.Source)
	}
}

func TestRegistry_DuplicateReplace(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger())
	first := &Definition{Name: "greet", Source: "a.star"}
	second := &Definition{Name: "greet", Source: "b.star"}

	if err := r.Register(first, DuplicateReplace); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(second, DuplicateReplace); err != nil {
		t.Fatalf("Register(replace) = %v, want nil", err)
	}

	got, _ := r.Lookup("greet")
	if got.Source != "b.star" {
		t.Errorf("Source = %q, want the replacement", got.Source)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestRegistry_RejectsEmptyName(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger())
	if err := r.Register(&Definition{}, DuplicateReject); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("Register = %v, want ErrEmptyName", err)
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger())
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(&Definition{Name: name}, DuplicateReject); err != nil {
			t.Fatal(err)
		}
	}

	defs := r.List()
	want := []string{"alpha", "mid", "zeta"}
	for i, name := range want {
		if defs[i].Name != name {
			t.Errorf("List[%d].Name = %q, want %q", i, defs[i].Name, name)
		}
	}
}

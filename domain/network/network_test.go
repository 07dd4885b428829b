package network

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("h%02d", i)
	}
	return out
}

func TestRandom_FixedOutDegree(t *testing.T) {
	t.Parallel()

	n, err := Random(ids(30), 4, rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatalf("Random() error = %v", err)
	}
	if n.Edges() != 30*4 {
		t.Errorf("Edges() = %d, want %d", n.Edges(), 30*4)
	}
	for _, id := range ids(30) {
		succ := n.Successors(id)
		if len(succ) != 4 {
			t.Errorf("%s has %d successors, want 4", id, len(succ))
		}
		for _, s := range succ {
			if s == id {
				t.Errorf("%s influences itself", id)
			}
		}
	}
}

func TestRandom_Reproducible(t *testing.T) {
	t.Parallel()

	a, _ := Random(ids(20), 3, rand.New(rand.NewPCG(7, 7)))
	b, _ := Random(ids(20), 3, rand.New(rand.NewPCG(7, 7)))
	if diff := cmp.Diff(a.Adjacency(), b.Adjacency()); diff != "" {
		t.Errorf("same seed, different networks (-a +b):\n%s", diff)
	}
}

func TestRandom_Degrees(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		nodes  int
		degree int
		edges  int
	}{
		{"capped", 3, 10, 6},
		{"zero", 5, 0, 0},
		{"single", 1, 2, 0},
		{"empty", 0, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			n, err := Random(ids(tt.nodes), tt.degree, rand.New(rand.NewPCG(1, 1)))
			if err != nil {
				t.Fatal(err)
			}
			if n.Edges() != tt.edges {
				t.Errorf("Edges() = %d, want %d", n.Edges(), tt.edges)
			}
		})
	}

	if _, err := Random(ids(3), -1, rand.New(rand.NewPCG(1, 1))); !errors.Is(err, ErrInvalidDegree) {
		t.Errorf("Random(-1) error = %v, want ErrInvalidDegree", err)
	}
}

func TestNetwork_Neighbours(t *testing.T) {
	t.Parallel()

	n, err := New([]string{"a", "b", "c", "d"})
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range [][2]string{{"c", "a"}, {"b", "a"}, {"a", "d"}, {"a", "a"}} {
		if err := n.Link(e[0], e[1]); err != nil {
			t.Fatalf("Link(%s, %s) error = %v", e[0], e[1], err)
		}
	}

	if diff := cmp.Diff([]string{"b", "c"}, n.Predecessors("a")); diff != "" {
		t.Errorf("Predecessors(a) (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"d"}, n.Successors("a")); diff != "" {
		t.Errorf("Successors(a) (-want +got):\n%s", diff)
	}
	if got := n.Predecessors("missing"); got != nil {
		t.Errorf("Predecessors(missing) = %v, want nil", got)
	}
	if n.Components() != 1 {
		t.Errorf("Components() = %d, want 1", n.Components())
	}

	if err := n.Link("a", "zz"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Link() error = %v, want ErrUnknownNode", err)
	}
	if _, err := New([]string{"a", "a"}); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("New() error = %v, want ErrDuplicateNode", err)
	}
}

func TestFromAdjacency(t *testing.T) {
	t.Parallel()

	orig, _ := Random(ids(12), 2, rand.New(rand.NewPCG(3, 4)))
	restored, err := FromAdjacency(orig.Adjacency())
	if err != nil {
		t.Fatalf("FromAdjacency() error = %v", err)
	}
	if diff := cmp.Diff(orig.Adjacency(), restored.Adjacency()); diff != "" {
		t.Errorf("adjacency changed (-orig +restored):\n%s", diff)
	}
	for _, id := range ids(12) {
		if diff := cmp.Diff(orig.Predecessors(id), restored.Predecessors(id)); diff != "" {
			t.Errorf("Predecessors(%s) changed:\n%s", id, diff)
		}
	}
}

func TestComponents(t *testing.T) {
	t.Parallel()

	n, _ := New([]string{"a", "b", "c", "d", "e"})
	_ = n.Link("a", "b")
	_ = n.Link("d", "c")
	if n.Components() != 3 {
		t.Errorf("Components() = %d, want 3", n.Components())
	}
	empty, _ := New(nil)
	if empty.Components() != 0 {
		t.Errorf("Components() = %d, want 0", empty.Components())
	}
}

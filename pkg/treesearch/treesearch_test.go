package treesearch

import (
	"strings"
	"testing"
)

type node struct {
	name   string
	height int
	kids   []*node
}

func children(n *node) []*node { return n.kids }

func tree() *node {
	return &node{name: "root", height: 100, kids: []*node{
		{name: "a", height: 10, kids: []*node{
			{name: "a1", height: 500},
			{name: "a2", height: 40},
		}},
		{name: "b", height: 500, kids: []*node{
			{name: "b1", height: 700},
		}},
		{name: "c", height: 30},
	}}
}

func TestWalk_PreOrder(t *testing.T) {
	var names []string
	Walk([]*node{tree()}, children, func(n *node) bool {
		names = append(names, n.name)
		return true
	})

	got := strings.Join(names, ",")
	want := "root,a,a1,a2,b,b1,c"
	if got != want {
		t.Errorf("Walk() order = %s, want %s", got, want)
	}
}

func TestWalk_Stop(t *testing.T) {
	count := 0
	Walk([]*node{tree()}, children, func(n *node) bool {
		count++
		return n.name != "a1"
	})
	if count != 3 {
		t.Errorf("Walk() visited %d nodes, want 3", count)
	}
}

func TestBest(t *testing.T) {
	height := func(n *node) int { return n.height }

	tests := []struct {
		name   string
		keep   func(*node) bool
		want   string
		wantOK bool
	}{
		{
			name:   "greatest overall",
			keep:   func(*node) bool { return true },
			want:   "b1",
			wantOK: true,
		},
		{
			name:   "tie goes to first in document order",
			keep:   func(n *node) bool { return n.name == "a1" || n.name == "b" },
			want:   "a1",
			wantOK: true,
		},
		{
			name:   "filtered",
			keep:   func(n *node) bool { return n.height < 50 },
			want:   "a2",
			wantOK: true,
		},
		{
			name:   "nothing qualifies",
			keep:   func(*node) bool { return false },
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Best([]*node{tree()}, children, tt.keep, height)
			if ok != tt.wantOK {
				t.Fatalf("Best() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.name != tt.want {
				t.Errorf("Best() = %s, want %s", got.name, tt.want)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	got := Filter([]*node{tree()}, children, func(n *node) bool { return len(n.kids) > 0 })
	var names []string
	for _, n := range got {
		names = append(names, n.name)
	}
	if strings.Join(names, ",") != "root,a,b" {
		t.Errorf("Filter() = %v, want [root a b]", names)
	}
}

func TestMaxBy(t *testing.T) {
	items := []*node{{name: "x", height: 3}, {name: "y", height: 9}, {name: "z", height: 9}}
	got, ok := MaxBy(items, func(n *node) int { return n.height })
	if !ok || got.name != "y" {
		t.Errorf("MaxBy() = %v, %v, want y, true", got, ok)
	}

	if _, ok := MaxBy([]*node{}, func(n *node) int { return n.height }); ok {
		t.Error("MaxBy(empty) ok = true, want false")
	}
}

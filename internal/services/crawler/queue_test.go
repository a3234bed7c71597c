package crawler

import "testing"

func TestURLQueueOrdering(t *testing.T) {
	q := newURLQueue()
	q.Push("http://h.com/a", false)
	q.Push("http://h.com/iletisim", true)
	q.Push("http://h.com/b", false)
	q.Push("http://h.com/contact", true)

	want := []string{"http://h.com/iletisim", "http://h.com/contact", "http://h.com/a", "http://h.com/b"}
	for i, expected := range want {
		got, ok := q.Pop()
		if !ok || got != expected {
			t.Fatalf("pop %d = %q (%v), want %q", i, got, ok, expected)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Error("queue should be empty")
	}
}

func TestURLQueueDedup(t *testing.T) {
	q := newURLQueue()
	if !q.Push("http://h.com/about#team", false) {
		t.Fatal("first push should succeed")
	}
	if q.Push("http://h.com/about", true) {
		t.Error("fragment variant should count as already seen")
	}
	if q.Len() != 1 {
		t.Errorf("Len = %d, want 1", q.Len())
	}
	got, _ := q.Pop()
	if got != "http://h.com/about" {
		t.Errorf("Pop = %q, want the fragment-stripped URL", got)
	}
}

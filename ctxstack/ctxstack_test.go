package ctxstack

import "testing"

func TestCellRoundTrip(t *testing.T) {
	s := &Stack{}
	c := NewCell(s, 5)

	s.Push()
	c.Set(10)
	s.Push()
	c.Set(15)

	if got := c.Get(); got != 15 {
		t.Fatalf("got %d, want 15", got)
	}

	s.Pop()
	if got := c.Get(); got != 10 {
		t.Fatalf("after one pop, got %d, want 10", got)
	}

	s.Pop()
	if got := c.Get(); got != 5 {
		t.Fatalf("after two pops, got %d, want 5", got)
	}
}

func TestCellMultipleWritesSameLevelCollapse(t *testing.T) {
	s := &Stack{}
	c := NewCell(s, 0)

	s.Push()
	c.Set(1)
	c.Set(2)
	c.Set(3)

	s.Pop()
	if got := c.Get(); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}

func TestPopToJumpsMultipleLevels(t *testing.T) {
	s := &Stack{}
	c := NewCell(s, "L0")

	s.Push()
	c.Set("L1")
	s.Push()
	c.Set("L2")
	s.Push()
	c.Set("L3")

	s.PopTo(1)
	if got := c.Get(); got != "L1" {
		t.Fatalf("got %q, want L1", got)
	}
	if s.Level() != 1 {
		t.Fatalf("level = %d, want 1", s.Level())
	}
}

func TestUntouchedCellPopsForFree(t *testing.T) {
	s := &Stack{}
	a := NewCell(s, 1)
	b := NewCell(s, 2)

	s.Push()
	a.Set(100) // only a is dirtied at this level
	s.Pop()

	if a.Get() != 1 || b.Get() != 2 {
		t.Fatalf("a=%d b=%d, want a=1 b=2", a.Get(), b.Get())
	}
}

func TestPopAtLevelZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic popping at level 0")
		}
	}()
	(&Stack{}).Pop()
}

func TestIndependentStacksStayInSync(t *testing.T) {
	bounds := &Stack{}
	frames := &Stack{}

	lo := NewCell(bounds, 0.0)
	hi := NewCell(bounds, 1.0)

	bounds.Push()
	frames.Push()
	lo.Set(0.5)
	hi.Set(0.9)

	if bounds.Level() != frames.Level() {
		t.Fatalf("bounds level %d != frames level %d", bounds.Level(), frames.Level())
	}

	bounds.Pop()
	frames.Pop()

	if lo.Get() != 0.0 || hi.Get() != 1.0 {
		t.Fatalf("lo=%v hi=%v, want 0,1", lo.Get(), hi.Get())
	}
}

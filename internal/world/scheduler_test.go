package world

import (
	"testing"

	"github.com/df-mc/dragonfly/server/block/cube"
)

func TestSchedulerKeepsEarliestDue(t *testing.T) {
	s := NewTickScheduler()
	pos := cube.Pos{1, 2, 3}
	s.Schedule("magic_water", pos, 5)
	s.Schedule("magic_water", pos, 9)
	s.Schedule("magic_water", pos, 2)
	s.Schedule("experience", pos, 3)

	if s.Pending() != 2 {
		t.Fatalf("Pending = %d, want one entry per liquid", s.Pending())
	}
	if got := s.Advance(); len(got) != 0 {
		t.Fatalf("tick 1 released %v", got)
	}
	got := s.Advance()
	if len(got) != 1 || got[0].Liquid != "magic_water" || got[0].Due != 2 {
		t.Fatalf("tick 2 released %v, want the rescheduled magic water tick", got)
	}
	got = s.Advance()
	if len(got) != 1 || got[0].Liquid != "experience" {
		t.Fatalf("tick 3 released %v", got)
	}
	for i := 0; i < 10; i++ {
		if got := s.Advance(); len(got) != 0 {
			t.Fatalf("superseded entry fired at tick %d: %v", s.Now(), got)
		}
	}
	if s.Pending() != 0 || s.PendingAt(pos, "magic_water") {
		t.Fatal("scheduler should be empty")
	}
}

func TestSchedulerReleasesInScheduleOrder(t *testing.T) {
	s := NewTickScheduler()
	order := []cube.Pos{{3, 0, 0}, {1, 0, 0}, {2, 0, 0}}
	for _, p := range order {
		s.Schedule("magic_water", p, 1)
	}
	s.Schedule("magic_water", cube.Pos{9, 9, 9}, 0)

	got := s.Advance()
	if len(got) != 4 {
		t.Fatalf("released %d ticks, want 4", len(got))
	}
	for i, p := range order {
		if got[i].Pos != p {
			t.Fatalf("tick %d at %v, want %v", i, got[i].Pos, p)
		}
	}
	if got[3].Pos != (cube.Pos{9, 9, 9}) {
		t.Fatalf("zero delay should be treated as one tick, got %v", got[3])
	}
}

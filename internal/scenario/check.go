package scenario

import (
	"fmt"
	"slices"
	"strings"

	"github.com/df-mc/dragonfly/server/block/cube"

	"mad-liquid/internal/world"
)

func check(exp *Expect, rep *Report, w *world.World) []string {
	var failures []string
	fail := func(format string, args ...any) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}

	if exp.Idle != nil && *exp.Idle != rep.Idle {
		fail("idle: got %v, want %v", rep.Idle, *exp.Idle)
	}
	if exp.Cells != nil && *exp.Cells != rep.Cells() {
		fail("cells: got %d, want %d", rep.Cells(), *exp.Cells)
	}
	if exp.Sources != nil {
		got := 0
		for _, c := range rep.Census {
			got += c.Sources
		}
		if got != *exp.Sources {
			fail("sources: got %d, want %d", got, *exp.Sources)
		}
	}
	if exp.XP != nil && *exp.XP != rep.XP {
		fail("xp: got %d, want %d", rep.XP, *exp.XP)
	}
	for _, col := range exp.Columns {
		got := make([]int, len(col.Strengths))
		for i := range col.Strengths {
			got[i] = w.Cell(cube.Pos{col.X, col.From + i, col.Z}).Amount()
		}
		if !slices.Equal(got, col.Strengths) {
			fail("column x=%d z=%d from y=%d: got %s, want %s", col.X, col.Z, col.From, joinInts(got), joinInts(col.Strengths))
		}
	}
	for _, v := range exp.Empty {
		if c := w.Cell(v.Pos()); !c.IsEmpty() {
			fail("%v: got %s, want empty", v.Pos(), c)
		}
	}
	return failures
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = fmt.Sprint(n)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

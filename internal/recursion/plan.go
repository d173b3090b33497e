package recursion

import (
	"fmt"
	"strings"
)

// Strategy is the per-frame ordering used for a group.
type Strategy int

const (
	// StrategyChain derives a camera chain through the group without
	// drawing, then draws clones from the deepest bounce back to the
	// surface itself.
	StrategyChain Strategy = iota
	// StrategyCross draws each surface once and lets every sibling
	// re-render its first bounce from that reflection.
	StrategyCross
)

func (s Strategy) String() string {
	switch s {
	case StrategyChain:
		return "chain"
	case StrategyCross:
		return "cross"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// SelectStrategy picks the strategy for n surfaces and levels bounces.
func SelectStrategy(n, levels int) Strategy {
	if n < 3 || levels == 1 {
		return StrategyChain
	}
	return StrategyCross
}

// Op is what a Step does.
type Op int

const (
	OpRender Op = iota
	OpPublish
)

// NoSlot marks a Step without a chain viewer or result slot.
const NoSlot = -1

// Step is one render or publish call of a frame.
type Step struct {
	Op      Op
	Base    int  // outer loop surface; -1 for the final publish pass
	Surface int  // index of the surface addressed
	Depth   int  // clone depth; unused for base surfaces
	Clone   bool // addresses clones[Surface][Depth] instead of the base

	Viewer    int  // chain slot viewed from, or NoSlot for the owner
	Store     int  // chain slot the derived camera is kept in, or NoSlot
	Present   bool // draw and publish, not only derive
	AllLayers bool // reflect every layer regardless of the surface mask
}

func (st Step) String() string {
	var b strings.Builder
	if st.Op == OpPublish {
		fmt.Fprintf(&b, "publish  clone[%d][%d]", st.Surface, st.Depth)
		return b.String()
	}

	if st.Present {
		b.WriteString("draw     ")
	} else {
		b.WriteString("derive   ")
	}
	if st.Clone {
		fmt.Fprintf(&b, "clone[%d][%d]", st.Surface, st.Depth)
	} else {
		fmt.Fprintf(&b, "base[%d]", st.Surface)
	}
	if st.Viewer == NoSlot {
		b.WriteString(" from owner")
	} else {
		fmt.Fprintf(&b, " from chain[%d]", st.Viewer)
	}
	if st.Store != NoSlot {
		fmt.Fprintf(&b, " -> chain[%d]", st.Store)
	}
	if st.AllLayers {
		b.WriteString(" all-layers")
	}
	return b.String()
}

// BuildPlan returns the ordered steps of one frame for n surfaces and
// levels bounces. It is empty when n is zero.
func BuildPlan(n, levels int) []Step {
	if n == 0 || levels < 1 {
		return nil
	}

	next := func(i int) int {
		i++
		if i >= n {
			return 0
		}
		return i
	}

	// chain[0] is always empty: depth zero views from the owner.
	slot := func(depth int) int {
		if depth == 0 {
			return NoSlot
		}
		return depth
	}

	var steps []Step
	if SelectStrategy(n, levels) == StrategyChain {
		for i := 0; i < n; i++ {
			idx := i
			for depth := 1; depth < levels; depth++ {
				steps = append(steps, Step{
					Op:      OpRender,
					Base:    i,
					Surface: idx,
					Viewer:  slot(depth - 1),
					Store:   depth,
				})
				idx = next(idx)
			}

			// Even depths start the unwind one surface further along.
			idx = i
			if levels%2 == 0 {
				idx = next(idx)
			}
			for depth := levels - 1; depth >= 0; depth-- {
				steps = append(steps, Step{
					Op:        OpRender,
					Base:      i,
					Surface:   idx,
					Depth:     depth,
					Clone:     true,
					Viewer:    slot(depth),
					Store:     NoSlot,
					Present:   idx == i,
					AllLayers: depth == levels-1,
				})
				idx = next(idx)
			}
		}
	} else {
		for i := 0; i < n; i++ {
			steps = append(steps, Step{
				Op:      OpRender,
				Base:    i,
				Surface: i,
				Viewer:  NoSlot,
				Store:   1,
				Present: true,
			})
			idx := i
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				idx = next(idx)
				steps = append(steps, Step{
					Op:      OpRender,
					Base:    i,
					Surface: idx,
					Depth:   1,
					Clone:   true,
					Viewer:  1,
					Store:   NoSlot,
					Present: true,
				})
			}
			steps = append(steps, Step{
				Op:      OpRender,
				Base:    i,
				Surface: i,
				Clone:   true,
				Viewer:  NoSlot,
				Store:   NoSlot,
				Present: true,
			})
		}
	}

	for i := 0; i < n; i++ {
		steps = append(steps, Step{Op: OpPublish, Base: -1, Surface: i, Clone: true, Viewer: NoSlot, Store: NoSlot})
	}
	return steps
}

// Package recursion coordinates a group of reflecting surfaces that see
// each other, rendering mirrors-in-mirrors up to a fixed depth.
//
// Every (surface, depth) pair gets its own clone of the surface, created
// once when the Scheduler is built. Per frame the scheduler either walks a
// derived camera chain and unwinds it deepest-first, or, for groups of
// three or more with more than one level, renders a single bounce and
// propagates it to every sibling.
package recursion

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mirror/internal/engine/camera"
	"github.com/Faultbox/midgard-mirror/internal/engine/render"
	"github.com/Faultbox/midgard-mirror/internal/logger"
	"github.com/Faultbox/midgard-mirror/internal/reflection"
)

// Scheduler drives one recursive group. It is used from the render thread.
type Scheduler struct {
	settings GroupSettings
	bases    []*reflection.Surface
	clones   []*reflection.Surface // clones[i*levels+depth]
	plan     []Step

	// Derived viewers of the current base surface, copied by value so a
	// surface reused deeper in the chain cannot overwrite a shallower entry.
	chain []camera.Camera
	valid []bool

	log         *zap.Logger
	unsubscribe func()
	closed      bool
}

// New builds the clone arena and frame plan for bases, the group members
// in authoring order. The bases stay owned by the caller.
func New(bases []*reflection.Surface, settings GroupSettings) (*Scheduler, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	for i, b := range bases {
		if b == nil {
			return nil, fmt.Errorf("%w: surface %d is nil", ErrInvalidGroup, i)
		}
	}

	levels := settings.Levels
	s := &Scheduler{
		settings: settings,
		bases:    bases,
		clones:   make([]*reflection.Surface, 0, len(bases)*levels),
		plan:     BuildPlan(len(bases), levels),
		chain:    make([]camera.Camera, levels),
		valid:    make([]bool, levels),
		log:      logger.Named("recursion").With(zap.Int("group", settings.Group)),
	}

	for i, base := range bases {
		for depth := 0; depth < levels; depth++ {
			c, err := base.Clone(s.cloneSettings(base.Settings(), depth), fmt.Sprintf("%s#%d", base.Name(), depth))
			if err != nil {
				s.closeClones()
				return nil, fmt.Errorf("surface %d depth %d: %w", i, depth, err)
			}
			s.clones = append(s.clones, c)
		}
	}

	s.log.Info("recursive group ready",
		zap.Int("surfaces", len(bases)),
		zap.Int("levels", levels),
		zap.Stringer("strategy", s.Strategy()),
		zap.Int("steps", len(s.plan)))
	return s, nil
}

// cloneSettings applies the per-depth quality overrides.
func (s *Scheduler) cloneSettings(base reflection.Settings, depth int) reflection.Settings {
	c := base
	c.Shadows = base.Shadows && depth < s.settings.ShadowLevels
	c.MSAA = base.MSAA && depth < s.settings.MSAACutoff
	return c
}

// Strategy returns the ordering used each frame.
func (s *Scheduler) Strategy() Strategy {
	return SelectStrategy(len(s.bases), s.settings.Levels)
}

// Plan returns the steps Execute issues, in order.
func (s *Scheduler) Plan() []Step {
	return append([]Step(nil), s.plan...)
}

// Len returns the number of surfaces in the group.
func (s *Scheduler) Len() int { return len(s.bases) }

// Settings returns the group settings.
func (s *Scheduler) Settings() GroupSettings { return s.settings }

// Base returns group member i.
func (s *Scheduler) Base(i int) *reflection.Surface { return s.bases[i] }

// Clone returns the clone of surface i at depth.
func (s *Scheduler) Clone(i, depth int) *reflection.Surface {
	return s.clones[i*s.settings.Levels+depth]
}

// Execute renders one frame of the group. A failing step is logged and
// the frame carries on; all failures are returned joined.
func (s *Scheduler) Execute(ctx render.Context) error {
	if s.closed || len(s.bases) == 0 {
		return nil
	}

	var errs []error
	current := NoSlot
	for _, st := range s.plan {
		if st.Base != current {
			current = st.Base
			clear(s.valid)
		}
		if err := s.run(ctx, st); err != nil {
			s.log.Error("reflection step failed", zap.Stringer("step", st), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Scheduler) run(ctx render.Context, st Step) error {
	surf := s.bases[st.Surface]
	if st.Clone {
		surf = s.Clone(st.Surface, st.Depth)
	}

	if st.Op == OpPublish {
		surf.Publish()
		return nil
	}

	if st.AllLayers {
		surf.SetLayerMask(render.AllLayers)
	}

	var viewer *camera.Camera
	if st.Viewer != NoSlot && s.valid[st.Viewer] {
		viewer = &s.chain[st.Viewer]
	}

	cam, err := surf.Render(ctx, viewer, true, st.Present)
	if st.Store != NoSlot {
		s.valid[st.Store] = cam != nil
		if cam != nil {
			s.chain[st.Store] = *cam
		}
	}
	return err
}

// Tick advances the frame counters of every base and clone.
func (s *Scheduler) Tick() {
	for _, b := range s.bases {
		b.Tick()
	}
	for _, c := range s.clones {
		c.Tick()
	}
}

// Subscribe runs Execute whenever a game camera begins rendering.
func (s *Scheduler) Subscribe(n reflection.Notifier) {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.unsubscribe = n.Subscribe(func(ctx render.Context, cam *camera.Camera) {
		if cam.Kind != camera.KindGame {
			return
		}
		_ = s.Execute(ctx)
	})
}

// Close unsubscribes and releases every clone. Calling it again has no
// effect.
func (s *Scheduler) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.closeClones()
}

func (s *Scheduler) closeClones() {
	for _, c := range s.clones {
		c.Close()
	}
}

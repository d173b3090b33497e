package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mirror/internal/engine/camera"
	"github.com/Faultbox/midgard-mirror/internal/engine/render"
	"github.com/Faultbox/midgard-mirror/internal/logger"
	"github.com/Faultbox/midgard-mirror/internal/recursion"
	"github.com/Faultbox/midgard-mirror/internal/reflection"
)

// Adjust rewrites resolved surface settings before the surface is built.
type Adjust func(reflection.Settings) reflection.Settings

// Mirrors owns every reflection surface built from a registry. Recursive
// members of the configured group are driven by a scheduler; the rest
// render on their own.
type Mirrors struct {
	surfaces  []*reflection.Surface
	singles   []*reflection.Surface
	scheduler *recursion.Scheduler
}

// BuildMirrors creates one surface per registry entry, rendering
// reflections of owner.
func BuildMirrors(reg *reflection.Registry, group recursion.GroupSettings, owner *camera.Camera, deps reflection.Deps, adjust Adjust) (*Mirrors, error) {
	m := &Mirrors{}
	var members []*reflection.Surface

	for i := range reg.Surfaces {
		settings := reg.Resolve(i)
		if adjust != nil {
			settings = adjust(settings)
		}
		s, err := reflection.New(settings, owner, deps)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("surface %d: %w", i, err)
		}
		m.surfaces = append(m.surfaces, s)

		switch {
		case settings.Recursive && settings.RecursiveGroup == group.Group:
			members = append(members, s)
		case settings.Recursive:
			logger.Warn("recursive surface outside the configured group renders alone",
				zap.String("surface", s.Name()),
				zap.Int("group", settings.RecursiveGroup),
				zap.Int("configured", group.Group),
			)
			m.singles = append(m.singles, s)
		default:
			m.singles = append(m.singles, s)
		}
	}

	if len(members) > 0 {
		sched, err := recursion.New(members, group)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.scheduler = sched
	}
	return m, nil
}

// Subscribe hooks the scheduler and every standalone surface to n.
func (m *Mirrors) Subscribe(n reflection.Notifier) {
	if m.scheduler != nil {
		m.scheduler.Subscribe(n)
	}
	for _, s := range m.singles {
		s.Subscribe(n)
	}
}

// Tick advances every frame counter once.
func (m *Mirrors) Tick() {
	if m.scheduler != nil {
		m.scheduler.Tick()
	}
	for _, s := range m.singles {
		s.Tick()
	}
}

// Close releases every surface, clone and subscription.
func (m *Mirrors) Close() {
	if m.scheduler != nil {
		m.scheduler.Close()
	}
	for _, s := range m.surfaces {
		s.Close()
	}
}

// Surfaces returns the base surfaces in authoring order.
func (m *Mirrors) Surfaces() []*reflection.Surface { return m.surfaces }

// Standalone returns the surfaces not driven by the scheduler.
func (m *Mirrors) Standalone() []*reflection.Surface { return m.singles }

// Scheduler returns the recursive group scheduler, or nil when the
// registry has no members of the configured group.
func (m *Mirrors) Scheduler() *recursion.Scheduler { return m.scheduler }

// NamedTarget is a live render target and the surface that owns it.
type NamedTarget struct {
	Name   string
	Target render.Target
}

// Targets returns every allocated target, base surfaces first, then the
// recursive clones by member and depth.
func (m *Mirrors) Targets() []NamedTarget {
	var out []NamedTarget
	add := func(s *reflection.Surface) {
		if t := s.Target(); t != nil {
			out = append(out, NamedTarget{Name: s.Name(), Target: t})
		}
	}
	for _, s := range m.surfaces {
		add(s)
	}
	if m.scheduler != nil {
		levels := m.scheduler.Settings().Levels
		for i := 0; i < m.scheduler.Len(); i++ {
			for depth := 0; depth < levels; depth++ {
				add(m.scheduler.Clone(i, depth))
			}
		}
	}
	return out
}

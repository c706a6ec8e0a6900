package supervisor

import (
	"context"
	"time"

	"github.com/lunatic-go/actorkit/host"
	"github.com/lunatic-go/actorkit/obs"
	"github.com/lunatic-go/actorkit/tag"
)

type childState struct {
	spec  ChildSpec
	tag   tag.Tag
	id    host.ProcessIdentity
	alive bool
}

// run is the supervisor's own dispatch loop: spawn every child linked under
// its own tag, then react to link-death notifications by restarting
// according to strategy until ctx is cancelled or the restart window is
// exceeded.
func run(ctx context.Context, self host.ABI, s *Supervisor) {
	children := make([]*childState, len(s.specs))
	for i, spec := range s.specs {
		children[i] = &childState{spec: spec, tag: tag.New(self.Tag())}
		spawnChild(self, children[i])
	}

	var window *restartWindow
	if s.maxRestarts > 0 {
		window = newRestartWindow(s.within)
	}

	for {
		if ctx.Err() != nil {
			shutdownAll(self, children)
			return
		}

		code, err := self.Message().Receive(nil, 100*time.Millisecond)
		if err != nil {
			s.logger.Error("supervisor receive failed", "err", err)
			shutdownAll(self, children)
			return
		}

		switch code {
		case host.MessageTimeout:
			continue
		case host.MessageLinkDied:
			deathTag := tag.Tag(self.Message().GetTag())
			idx := indexByTag(children, deathTag)
			if idx < 0 {
				continue
			}
			children[idx].alive = false

			if children[idx].spec.Restart == Temporary {
				s.logger.Info("supervised child stopped, not restarting", "id", children[idx].spec.ID)
				continue
			}

			if window != nil {
				if n := window.record(time.Now()); n > s.maxRestarts {
					s.logger.Error("supervisor exceeded restart intensity", "max", s.maxRestarts)
					obs.RecordSupervisorGaveUp()
					s.setErr(&ErrRestartIntensity{MaxRestarts: s.maxRestarts, Within: s.within.String()})
					shutdownAll(self, children)
					return
				}
			}

			restartSet(self, s, children, idx)
		default:
			// This module's supervisors expose no message dispatch surface
			// of their own (spec §4.7) — anything else delivered here is
			// ignored.
		}
	}
}

func indexByTag(children []*childState, t tag.Tag) int {
	for i, c := range children {
		if c.tag == t {
			return i
		}
	}
	return -1
}

func spawnChild(self host.ABI, c *childState) {
	id, err := c.spec.Start(self, c.tag)
	if err != nil {
		panic(err)
	}
	c.id = id
	c.alive = true
}

func restartSet(self host.ABI, s *Supervisor, children []*childState, idx int) []int {
	var set []int
	switch s.strategy {
	case OneForOne:
		set = []int{idx}
	case OneForAll:
		for i := range children {
			set = append(set, i)
		}
	case RestForOne:
		for i := idx; i < len(children); i++ {
			set = append(set, i)
		}
	}

	for _, i := range set {
		if children[i].alive {
			self.Process().Kill(children[i].id)
			children[i].alive = false
		}
	}
	correlationID := obs.NewCorrelationID()
	for _, i := range set {
		s.logger.Info("restarting supervised child", "id", children[i].spec.ID, "correlation_id", correlationID)
		spawnChild(self, children[i])
		obs.RecordSupervisorRestart(strategyLabel(s.strategy))
	}
	return set
}

func strategyLabel(s Strategy) string {
	switch s {
	case OneForAll:
		return "one_for_all"
	case RestForOne:
		return "rest_for_one"
	default:
		return "one_for_one"
	}
}

func shutdownAll(self host.ABI, children []*childState) {
	for _, c := range children {
		if c.alive {
			self.Process().Kill(c.id)
		}
	}
}

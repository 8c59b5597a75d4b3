package appshell

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// vacancy tracks one mount point slot being vacated during a pass.
// Successor activations block on ch; ok reports whether the incumbent
// actually freed the slot. A failed unmount leaves ok false and the
// successor skips its mount rather than double-occupy the slot.
type vacancy struct {
	ch chan struct{}
	ok bool
}

// plannedDeactivation pairs an application to unmount with the vacancy it
// must settle, nil when the application holds no named mount point.
type plannedDeactivation struct {
	rt  *appRuntime
	vac *vacancy
}

// plannedActivation pairs an application to mount or update with the props
// assembled for it.
type plannedActivation struct {
	rt    *appRuntime
	props MountProps
}

// passPlan is the diff one reconciliation pass executes. All slices are in
// registration order; vacancies indexes the mount points being vacated.
type passPlan struct {
	id         string
	location   Location
	deactivate []plannedDeactivation
	activate   []plannedActivation
	update     []plannedActivation
	vacancies  map[string][]*vacancy
}

// requestReconcile asks for a pass against loc. While a pass is running
// the location is parked as pending, superseding any previously parked
// one; otherwise a reconcile loop starts. Never blocks.
func (s *Shell) requestReconcile(loc Location) {
	s.reconcileMu.Lock()
	if s.reconciling {
		var dropped string
		if s.pending != nil {
			dropped = s.pending.String()
		}
		s.pending = &loc
		s.reconcileMu.Unlock()
		if dropped != "" && dropped != loc.String() {
			s.logger.Debug("Reconciliation coalesced", "dropped", dropped, "replacedBy", loc.String())
			s.emitEvent(context.Background(), EventTypeReconcileCoalesced,
				CoalesceEvent{Dropped: dropped, ReplacedBy: loc.String()}, nil)
		}
		return
	}
	s.reconciling = true
	s.reconcileMu.Unlock()
	go s.reconcileLoop(loc)
}

// reconcileLoop runs passes until no pending location remains, then
// releases waiters. At most one loop exists at a time; intermediates
// queued during a pass are discarded in favor of the latest.
func (s *Shell) reconcileLoop(loc Location) {
	for {
		s.runPass(context.Background(), loc)

		s.reconcileMu.Lock()
		if s.pending != nil {
			loc = *s.pending
			s.pending = nil
			s.reconcileMu.Unlock()
			continue
		}
		s.reconciling = false
		waiters := s.waiters
		s.waiters = nil
		s.reconcileMu.Unlock()
		for _, w := range waiters {
			close(w)
		}
		return
	}
}

// awaitQuiescence blocks until no pass is running and none is pending, or
// until ctx is done.
func (s *Shell) awaitQuiescence(ctx context.Context) error {
	s.reconcileMu.Lock()
	if !s.reconciling {
		s.reconcileMu.Unlock()
		return nil
	}
	w := make(chan struct{})
	s.waiters = append(s.waiters, w)
	s.reconcileMu.Unlock()

	select {
	case <-w:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runPass executes one reconciliation pass against loc. A pass never
// aborts on one application's failure; each outcome lands on that
// application alone.
func (s *Shell) runPass(ctx context.Context, loc Location) {
	// Pass ids share the event id format so they sort by time too.
	passID := generateEventID()
	start := time.Now()

	s.mu.RLock()
	descriptors := s.registry.descriptors()
	s.mu.RUnlock()

	active, faults := resolveActive(loc, descriptors)
	for _, fault := range faults {
		s.reportActivationFault(ctx, fault, passID)
	}

	plan := s.buildPlan(loc, active, passID)

	s.logger.Info("Reconciliation pass started",
		"pass", passID, "location", loc.String(),
		"deactivate", len(plan.deactivate), "activate", len(plan.activate), "update", len(plan.update))
	s.emitEvent(ctx, EventTypeReconcileStarted,
		ReconcileEvent{Pass: passID, Location: loc.String()}, nil)

	failures := s.executePlan(ctx, plan)

	duration := time.Since(start)
	s.logger.Info("Reconciliation pass completed",
		"pass", passID, "location", loc.String(), "failures", failures, "duration", duration)
	s.emitEvent(ctx, EventTypeReconcileCompleted, ReconcileEvent{
		Pass:        passID,
		Location:    loc.String(),
		Activated:   activationNames(plan.activate),
		Deactivated: deactivationNames(plan.deactivate),
		Updated:     activationNames(plan.update),
		Failures:    failures,
		Duration:    duration,
	}, nil)
}

// buildPlan diffs the target set against current statuses. Statuses are
// stable here: passes are serialized, so no step is in flight while the
// plan is built.
func (s *Shell) buildPlan(loc Location, active activationSet, passID string) passPlan {
	plan := passPlan{id: passID, location: loc, vacancies: make(map[string][]*vacancy)}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Mount points held by applications whose unmount failed stay occupied
	// until those applications are reset; nothing mounts into them.
	quarantined := make(map[string]bool)
	for _, rt := range s.registry.ordered() {
		if rt.status == StatusUnmountError && rt.descriptor.MountPoint != "" {
			quarantined[rt.descriptor.MountPoint] = true
		}
	}

	for _, rt := range s.registry.ordered() {
		values, isActive := active[rt.descriptor.Name]
		switch {
		case rt.status.Active() && !isActive:
			pd := plannedDeactivation{rt: rt}
			if mp := rt.descriptor.MountPoint; mp != "" {
				pd.vac = &vacancy{ch: make(chan struct{})}
				plan.vacancies[mp] = append(plan.vacancies[mp], pd.vac)
			}
			plan.deactivate = append(plan.deactivate, pd)
		case rt.status.Active() && isActive:
			plan.update = append(plan.update, plannedActivation{
				rt:    rt,
				props: buildMountProps(rt.descriptor, loc, values),
			})
		case isActive && rt.status.Activatable():
			if mp := rt.descriptor.MountPoint; mp != "" && quarantined[mp] {
				s.logger.Warn("Mount point quarantined by failed unmount, mount skipped",
					"app", rt.descriptor.Name, "mountPoint", mp, "pass", passID)
				continue
			}
			plan.activate = append(plan.activate, plannedActivation{
				rt:    rt,
				props: buildMountProps(rt.descriptor, loc, values),
			})
		}
	}
	return plan
}

// executePlan runs the plan's steps. Unmounts, mounts and updates all run
// concurrently across applications; the only cross-application ordering is
// a successor waiting for its mount point to be vacated. Returns the
// number of failed steps.
func (s *Shell) executePlan(ctx context.Context, plan passPlan) int {
	var failures atomic.Int32
	var wg sync.WaitGroup

	for _, pd := range plan.deactivate {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.unmount(ctx, pd.rt, plan.id)
			if err != nil {
				failures.Add(1)
			}
			if pd.vac != nil {
				pd.vac.ok = err == nil
				close(pd.vac.ch)
			}
		}()
	}

	for _, pa := range plan.activate {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if mp := pa.rt.descriptor.MountPoint; mp != "" {
				for _, vac := range plan.vacancies[mp] {
					<-vac.ch
					if !vac.ok {
						s.logger.Warn("Mount point still occupied, mount skipped",
							"app", pa.rt.descriptor.Name, "mountPoint", mp, "pass", plan.id)
						return
					}
				}
			}
			if err := s.activate(ctx, pa.rt, pa.props, plan.id); err != nil {
				failures.Add(1)
			}
		}()
	}

	for _, pa := range plan.update {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.update(ctx, pa.rt, pa.props, plan.id); err != nil {
				failures.Add(1)
			}
		}()
	}

	wg.Wait()
	return int(failures.Load())
}

// reportActivationFault records a rule evaluation fault on the application
// and reports it through the sink. The application's status is untouched;
// a faulting rule only costs the match itself.
func (s *Shell) reportActivationFault(ctx context.Context, fault *LifecycleError, passID string) {
	s.mu.Lock()
	if rt := s.registry.get(fault.App); rt != nil {
		rt.lastErr = fault
	}
	s.mu.Unlock()

	s.logger.Warn("Activation rule fault", "app", fault.App, "pass", passID, "error", fault.Err)
	s.emitEvent(ctx, EventTypeActivationError, ActivationFaultEvent{
		App:   fault.App,
		Error: fault.Error(),
		Pass:  passID,
	}, nil)
}

func activationNames(list []plannedActivation) []string {
	if len(list) == 0 {
		return nil
	}
	names := make([]string, 0, len(list))
	for _, pa := range list {
		names = append(names, pa.rt.descriptor.Name)
	}
	return names
}

func deactivationNames(list []plannedDeactivation) []string {
	if len(list) == 0 {
		return nil
	}
	names := make([]string, 0, len(list))
	for _, pd := range list {
		names = append(names, pd.rt.descriptor.Name)
	}
	return names
}

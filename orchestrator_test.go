package appshell

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Static test errors to comply with err113 linting rule
var (
	errTestLoadRefused      = errors.New("load refused")
	errTestBootstrapRefused = errors.New("bootstrap refused")
	errTestMountRefused     = errors.New("mount refused")
	errTestUnmountRefused   = errors.New("unmount refused")
	errTestUpdateRefused    = errors.New("update refused")
)

// testLogger records log lines so tests can assert on warnings; it is
// otherwise silent.
type testLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *testLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+": "+msg)
}

func (l *testLogger) Debug(msg string, _ ...any) { l.log("DEBUG", msg) }
func (l *testLogger) Info(msg string, _ ...any)  { l.log("INFO", msg) }
func (l *testLogger) Warn(msg string, _ ...any)  { l.log("WARN", msg) }
func (l *testLogger) Error(msg string, _ ...any) { l.log("ERROR", msg) }

func (l *testLogger) contains(entry string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e == entry {
			return true
		}
	}
	return false
}

// fakeModule is a function-field lifecycle module; nil functions succeed.
type fakeModule struct {
	bootstrapFunc func(context.Context) error
	mountFunc     func(context.Context, MountProps) error
	unmountFunc   func(context.Context) error

	mu         sync.Mutex
	bootstraps int
	mounts     int
	unmounts   int
	lastProps  MountProps
}

func (m *fakeModule) Bootstrap(ctx context.Context) error {
	m.mu.Lock()
	m.bootstraps++
	m.mu.Unlock()
	if m.bootstrapFunc != nil {
		return m.bootstrapFunc(ctx)
	}
	return nil
}

func (m *fakeModule) Mount(ctx context.Context, props MountProps) error {
	if m.mountFunc != nil {
		if err := m.mountFunc(ctx, props); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.mounts++
	m.lastProps = props
	m.mu.Unlock()
	return nil
}

func (m *fakeModule) Unmount(ctx context.Context) error {
	if m.unmountFunc != nil {
		if err := m.unmountFunc(ctx); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.unmounts++
	m.mu.Unlock()
	return nil
}

func (m *fakeModule) counts() (bootstraps, mounts, unmounts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bootstraps, m.mounts, m.unmounts
}

func (m *fakeModule) mountProps() MountProps {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastProps
}

// updatableFakeModule adds an Update method so it satisfies
// UpdatableModule.
type updatableFakeModule struct {
	fakeModule
	updateFunc  func(context.Context, MountProps) error
	updates     int
	updateProps MountProps
}

func (m *updatableFakeModule) Update(ctx context.Context, props MountProps) error {
	if m.updateFunc != nil {
		if err := m.updateFunc(ctx, props); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.updates++
	m.updateProps = props
	m.mu.Unlock()
	return nil
}

func (m *updatableFakeModule) updateState() (updates int, props MountProps) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates, m.updateProps
}

// staticLoader returns a loader that always produces m.
func staticLoader(m LifecycleModule) ModuleLoader {
	return func(_ context.Context) (LifecycleModule, error) {
		return m, nil
	}
}

// newTestShell creates a shell with a silent logger and a manual navigator
// positioned at "/".
func newTestShell(t *testing.T, opts ...ShellOption) (*Shell, *ManualNavigator) {
	t.Helper()
	nav := NewManualNavigator(ParseLocation("/"))
	base := []ShellOption{WithLogger(&testLogger{}), WithNavigator(nav)}
	s, err := NewShell(append(base, opts...)...)
	require.NoError(t, err)
	return s, nav
}

// navigate changes location and waits for reconciliation to settle.
func navigate(t *testing.T, s *Shell, nav *ManualNavigator, path string) {
	t.Helper()
	nav.GotoPath(path)
	require.NoError(t, s.TriggerReconciliation(context.Background(), nil))
}

// settle waits for in-flight reconciliation without changing location.
func settle(t *testing.T, s *Shell) {
	t.Helper()
	require.NoError(t, s.TriggerReconciliation(context.Background(), nil))
}

func TestShellRegistration(t *testing.T) {
	t.Run("should_register_and_list_in_registration_order", func(t *testing.T) {
		s, _ := newTestShell(t)

		require.NoError(t, s.Register(AppDescriptor{
			Name: "navbar", Loader: staticLoader(&fakeModule{}), Activation: Path("/"),
		}))
		require.NoError(t, s.Register(AppDescriptor{
			Name: "settings", Loader: staticLoader(&fakeModule{}), Activation: Path("/settings"), MountPoint: "main",
		}))

		infos := s.ListApplications()
		require.Len(t, infos, 2)
		assert.Equal(t, "navbar", infos[0].Name)
		assert.Equal(t, "settings", infos[1].Name)
		assert.Equal(t, StatusNotLoaded, infos[0].Status)
		assert.Equal(t, "main", infos[1].MountPoint)
	})

	t.Run("should_reject_duplicate_names", func(t *testing.T) {
		s, _ := newTestShell(t)
		d := AppDescriptor{Name: "app", Loader: staticLoader(&fakeModule{}), Activation: Path("/")}

		require.NoError(t, s.Register(d))
		err := s.Register(d)
		assert.ErrorIs(t, err, ErrDuplicateAppName)
	})

	t.Run("should_reject_invalid_descriptors", func(t *testing.T) {
		s, _ := newTestShell(t)
		loader := staticLoader(&fakeModule{})

		assert.ErrorIs(t, s.Register(AppDescriptor{Loader: loader, Activation: Path("/")}), ErrInvalidDescriptor)
		assert.ErrorIs(t, s.Register(AppDescriptor{Name: "has space", Loader: loader, Activation: Path("/")}), ErrInvalidDescriptor)
		assert.ErrorIs(t, s.Register(AppDescriptor{Name: "app", Loader: loader}), ErrInvalidDescriptor)
		assert.ErrorIs(t, s.Register(AppDescriptor{Name: "app", Loader: loader, LoaderRef: "other", Activation: Path("/")}), ErrInvalidDescriptor)
	})

	t.Run("should_defer_loader_resolution_to_activation", func(t *testing.T) {
		s, nav := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{Name: "app", Activation: Path("/x")}),
			"a loaderless descriptor is legal at registration time")

		nav.GotoPath("/x")
		require.NoError(t, s.Start(context.Background()))

		status, err := s.GetStatus("app")
		require.NoError(t, err)
		assert.Equal(t, StatusLoadError, status)
	})

	t.Run("should_resolve_loaders_by_name_through_the_registry", func(t *testing.T) {
		m := &fakeModule{}
		loaders := NewLoaderRegistry()
		require.NoError(t, loaders.RegisterLoader("settings", staticLoader(m)))

		s, nav := newTestShell(t, WithLoaderResolver(loaders))
		require.NoError(t, s.Register(AppDescriptor{Name: "settings", Activation: Path("/settings")}))

		nav.GotoPath("/settings")
		require.NoError(t, s.Start(context.Background()))

		status, err := s.GetStatus("settings")
		require.NoError(t, err)
		assert.Equal(t, StatusMounted, status)
	})

	t.Run("should_prefer_loader_ref_over_application_name", func(t *testing.T) {
		m := &fakeModule{}
		loaders := NewLoaderRegistry()
		require.NoError(t, loaders.RegisterLoader("settings-v2", staticLoader(m)))

		s, nav := newTestShell(t, WithLoaderResolver(loaders))
		require.NoError(t, s.Register(AppDescriptor{
			Name: "settings", LoaderRef: "settings-v2", Activation: Path("/settings"),
		}))

		nav.GotoPath("/settings")
		require.NoError(t, s.Start(context.Background()))

		status, err := s.GetStatus("settings")
		require.NoError(t, err)
		assert.Equal(t, StatusMounted, status)
	})

	t.Run("should_mount_an_application_registered_after_start", func(t *testing.T) {
		s, nav := newTestShell(t)
		nav.GotoPath("/late")
		require.NoError(t, s.Start(context.Background()))

		m := &fakeModule{}
		require.NoError(t, s.Register(AppDescriptor{
			Name: "late", Loader: staticLoader(m), Activation: Path("/late"),
		}))
		settle(t, s)

		status, err := s.GetStatus("late")
		require.NoError(t, err)
		assert.Equal(t, StatusMounted, status)
	})

	t.Run("should_unregister_only_inactive_applications", func(t *testing.T) {
		m := &fakeModule{}
		s, nav := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{
			Name: "settings", Loader: staticLoader(m), Activation: Path("/settings"),
		}))

		nav.GotoPath("/settings")
		require.NoError(t, s.Start(context.Background()))

		err := s.Unregister("settings")
		assert.ErrorIs(t, err, ErrInvalidAppState)

		navigate(t, s, nav, "/")
		require.NoError(t, s.Unregister("settings"))

		_, err = s.GetStatus("settings")
		assert.ErrorIs(t, err, ErrAppNotFound)
		assert.ErrorIs(t, s.Unregister("settings"), ErrAppNotFound)
	})

	t.Run("should_ignore_descriptor_mutation_after_registration", func(t *testing.T) {
		s, _ := newTestShell(t)
		props := map[string]any{"theme": "light"}
		d := AppDescriptor{Name: "app", Loader: staticLoader(&fakeModule{}), Activation: Path("/"), Props: props}
		require.NoError(t, s.Register(d))

		props["theme"] = "dark"

		s.mu.RLock()
		registered := s.registry.get("app").descriptor.Props["theme"]
		s.mu.RUnlock()
		assert.Equal(t, "light", registered)
	})
}

func TestShellRoundTrip(t *testing.T) {
	t.Run("should_mount_unmount_and_remount_with_one_bootstrap", func(t *testing.T) {
		m := &fakeModule{}
		s, nav := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{
			Name: "settings", Loader: staticLoader(m), Activation: Path("/settings"),
		}))

		nav.GotoPath("/settings")
		require.NoError(t, s.Start(context.Background()))
		status, _ := s.GetStatus("settings")
		assert.Equal(t, StatusMounted, status)

		navigate(t, s, nav, "/profile")
		status, _ = s.GetStatus("settings")
		assert.Equal(t, StatusNotMounted, status)

		navigate(t, s, nav, "/settings")
		status, _ = s.GetStatus("settings")
		assert.Equal(t, StatusMounted, status)

		bootstraps, mounts, unmounts := m.counts()
		assert.Equal(t, 1, bootstraps, "bootstrap must run exactly once")
		assert.Equal(t, 2, mounts)
		assert.Equal(t, 1, unmounts)
	})

	t.Run("should_pass_merged_props_to_mount", func(t *testing.T) {
		m := &fakeModule{}
		s, nav := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{
			Name:       "detail",
			Loader:     staticLoader(m),
			Activation: WithValues(Path("/detail"), map[string]any{"source": "rule", "theme": "dark"}),
			Props:      map[string]any{"theme": "light", "lang": "en"},
			MountPoint: "main",
		}))

		nav.GotoPath("/detail?tab=2")
		require.NoError(t, s.Start(context.Background()))

		props := m.mountProps()
		assert.Equal(t, "detail", props.Name)
		assert.Equal(t, "main", props.MountPoint)
		assert.Equal(t, "/detail", props.Location.Path)
		assert.Equal(t, "tab=2", props.Location.RawQuery)
		assert.Equal(t, "dark", props.Values["theme"], "rule values override descriptor props")
		assert.Equal(t, "en", props.Values["lang"])
		assert.Equal(t, "rule", props.Values["source"])
	})

	t.Run("should_keep_a_persistent_app_untouched_across_sibling_navigation", func(t *testing.T) {
		root := &fakeModule{}
		a := &fakeModule{}
		b := &fakeModule{}
		s, nav := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{Name: "root", Loader: staticLoader(root), Activation: Path("/")}))
		require.NoError(t, s.Register(AppDescriptor{Name: "a", Loader: staticLoader(a), Activation: Path("/a")}))
		require.NoError(t, s.Register(AppDescriptor{Name: "b", Loader: staticLoader(b), Activation: Path("/b")}))

		nav.GotoPath("/a")
		require.NoError(t, s.Start(context.Background()))
		navigate(t, s, nav, "/b")
		navigate(t, s, nav, "/a")

		_, rootMounts, rootUnmounts := root.counts()
		assert.Equal(t, 1, rootMounts)
		assert.Equal(t, 0, rootUnmounts)

		status, _ := s.GetStatus("root")
		assert.Equal(t, StatusMounted, status)
		assert.Equal(t, []string{"root", "a"}, s.ListMounted())
	})
}

func TestShellFailureIsolation(t *testing.T) {
	t.Run("should_contain_a_mount_failure_to_the_failing_app", func(t *testing.T) {
		good := &fakeModule{}
		bad := &fakeModule{mountFunc: func(context.Context, MountProps) error { return errTestMountRefused }}
		s, nav := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{Name: "good", Loader: staticLoader(good), Activation: Path("/shared")}))
		require.NoError(t, s.Register(AppDescriptor{Name: "bad", Loader: staticLoader(bad), Activation: Path("/shared")}))

		nav.GotoPath("/shared")
		require.NoError(t, s.Start(context.Background()))

		goodStatus, _ := s.GetStatus("good")
		badStatus, _ := s.GetStatus("bad")
		assert.Equal(t, StatusMounted, goodStatus)
		assert.Equal(t, StatusMountError, badStatus)

		info, err := s.Info("bad")
		require.NoError(t, err)
		assert.Contains(t, info.LastError, "mount failed")
	})

	t.Run("should_park_a_bootstrap_failure_until_reset", func(t *testing.T) {
		bad := &fakeModule{bootstrapFunc: func(context.Context) error { return errTestBootstrapRefused }}
		s, nav := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{Name: "bad", Loader: staticLoader(bad), Activation: Path("/x")}))

		nav.GotoPath("/x")
		require.NoError(t, s.Start(context.Background()))

		status, _ := s.GetStatus("bad")
		assert.Equal(t, StatusBootstrapError, status)

		// Later passes must not retry a bootstrap failure.
		navigate(t, s, nav, "/x")
		bootstraps, _, _ := bad.counts()
		assert.Equal(t, 1, bootstraps)
	})

	t.Run("should_park_a_load_failure_until_reset", func(t *testing.T) {
		var calls atomic.Int32
		loader := func(_ context.Context) (LifecycleModule, error) {
			calls.Add(1)
			return nil, errTestLoadRefused
		}
		s, nav := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{Name: "bad", Loader: loader, Activation: Path("/x")}))

		nav.GotoPath("/x")
		require.NoError(t, s.Start(context.Background()))

		status, _ := s.GetStatus("bad")
		assert.Equal(t, StatusLoadError, status)

		navigate(t, s, nav, "/x")
		assert.Equal(t, int32(1), calls.Load(), "loader must not be retried without a reset")
	})

	t.Run("should_skip_an_app_whose_loader_returns_nothing", func(t *testing.T) {
		loader := func(_ context.Context) (LifecycleModule, error) { return nil, nil }
		s, nav := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{Name: "ghost", Loader: loader, Activation: Path("/x")}))

		nav.GotoPath("/x")
		require.NoError(t, s.Start(context.Background()))

		status, _ := s.GetStatus("ghost")
		assert.Equal(t, StatusSkipped, status)
	})

	t.Run("should_turn_a_panicking_mount_into_a_mount_error", func(t *testing.T) {
		bad := &fakeModule{mountFunc: func(context.Context, MountProps) error { panic("boom") }}
		s, nav := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{Name: "bad", Loader: staticLoader(bad), Activation: Path("/x")}))

		nav.GotoPath("/x")
		require.NoError(t, s.Start(context.Background()))

		status, _ := s.GetStatus("bad")
		assert.Equal(t, StatusMountError, status)

		info, _ := s.Info("bad")
		assert.Contains(t, info.LastError, "panicked")
	})

	t.Run("should_retry_a_mount_error_on_the_next_pass", func(t *testing.T) {
		var attempts atomic.Int32
		flaky := &fakeModule{mountFunc: func(context.Context, MountProps) error {
			if attempts.Add(1) == 1 {
				return errTestMountRefused
			}
			return nil
		}}
		s, nav := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{Name: "flaky", Loader: staticLoader(flaky), Activation: Path("/x")}))

		nav.GotoPath("/x")
		require.NoError(t, s.Start(context.Background()))
		status, _ := s.GetStatus("flaky")
		assert.Equal(t, StatusMountError, status)

		settle(t, s)
		status, _ = s.GetStatus("flaky")
		assert.Equal(t, StatusMounted, status)
	})
}

func TestShellCoalescing(t *testing.T) {
	t.Run("should_collapse_a_navigation_burst_to_the_latest_location", func(t *testing.T) {
		gate := make(chan struct{})
		slow := &fakeModule{mountFunc: func(context.Context, MountProps) error {
			<-gate
			return nil
		}}
		var aLoads, bLoads atomic.Int32
		loaderFor := func(calls *atomic.Int32, m LifecycleModule) ModuleLoader {
			return func(_ context.Context) (LifecycleModule, error) {
				calls.Add(1)
				return m, nil
			}
		}
		c := &fakeModule{}

		s, nav := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{Name: "slow", Loader: staticLoader(slow), Activation: Path("/slow")}))
		require.NoError(t, s.Register(AppDescriptor{Name: "a", Loader: loaderFor(&aLoads, &fakeModule{}), Activation: Path("/a")}))
		require.NoError(t, s.Register(AppDescriptor{Name: "b", Loader: loaderFor(&bLoads, &fakeModule{}), Activation: Path("/b")}))
		require.NoError(t, s.Register(AppDescriptor{Name: "c", Loader: staticLoader(c), Activation: Path("/c")}))

		require.NoError(t, s.Start(context.Background()))

		// The gated mount holds the first pass open while the burst queues.
		nav.GotoPath("/slow")
		nav.GotoPath("/a")
		nav.GotoPath("/b")
		nav.GotoPath("/c")
		close(gate)
		settle(t, s)

		assert.Equal(t, int32(0), aLoads.Load(), "superseded location must never be reconciled")
		assert.Equal(t, int32(0), bLoads.Load(), "superseded location must never be reconciled")

		cStatus, _ := s.GetStatus("c")
		assert.Equal(t, StatusMounted, cStatus)
		slowStatus, _ := s.GetStatus("slow")
		assert.Equal(t, StatusNotMounted, slowStatus)

		_, cMounts, _ := c.counts()
		assert.Equal(t, 1, cMounts)
	})
}

func TestShellMountPointHandoff(t *testing.T) {
	t.Run("should_quarantine_the_mount_point_after_a_failed_unmount", func(t *testing.T) {
		logger := &testLogger{}
		old := &fakeModule{unmountFunc: func(context.Context) error { return errTestUnmountRefused }}
		fresh := &fakeModule{}

		nav := NewManualNavigator(ParseLocation("/old"))
		s, err := NewShell(WithLogger(logger), WithNavigator(nav))
		require.NoError(t, err)
		require.NoError(t, s.Register(AppDescriptor{Name: "old", Loader: staticLoader(old), Activation: Path("/old"), MountPoint: "main"}))
		require.NoError(t, s.Register(AppDescriptor{Name: "fresh", Loader: staticLoader(fresh), Activation: Path("/fresh"), MountPoint: "main"}))

		require.NoError(t, s.Start(context.Background()))
		oldStatus, _ := s.GetStatus("old")
		require.Equal(t, StatusMounted, oldStatus)

		// The incumbent's unmount fails; the successor must not mount.
		navigate(t, s, nav, "/fresh")
		oldStatus, _ = s.GetStatus("old")
		assert.Equal(t, StatusUnmountError, oldStatus)
		freshStatus, _ := s.GetStatus("fresh")
		assert.NotEqual(t, StatusMounted, freshStatus)
		_, freshMounts, _ := fresh.counts()
		assert.Equal(t, 0, freshMounts)
		assert.True(t, logger.contains("WARN: Mount point still occupied, mount skipped"))

		// The quarantine must hold on later passes too.
		settle(t, s)
		_, freshMounts, _ = fresh.counts()
		assert.Equal(t, 0, freshMounts)

		// Resetting the incumbent releases the mount point.
		require.NoError(t, s.ResetApplication("old"))
		settle(t, s)
		freshStatus, _ = s.GetStatus("fresh")
		assert.Equal(t, StatusMounted, freshStatus)
	})

	t.Run("should_not_serialize_apps_with_distinct_mount_points", func(t *testing.T) {
		left := &fakeModule{}
		right := &fakeModule{}
		s, nav := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{Name: "left", Loader: staticLoader(left), Activation: Path("/page"), MountPoint: "left"}))
		require.NoError(t, s.Register(AppDescriptor{Name: "right", Loader: staticLoader(right), Activation: Path("/page"), MountPoint: "right"}))

		nav.GotoPath("/page")
		require.NoError(t, s.Start(context.Background()))

		assert.Equal(t, []string{"left", "right"}, s.ListMounted())
	})
}

func TestShellUpdate(t *testing.T) {
	t.Run("should_update_a_mounted_updatable_app_instead_of_remounting", func(t *testing.T) {
		m := &updatableFakeModule{}
		s, nav := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{Name: "nav", Loader: staticLoader(m), Activation: Path("/")}))

		require.NoError(t, s.Start(context.Background()))
		_, mounts, _ := m.counts()
		require.Equal(t, 1, mounts)

		navigate(t, s, nav, "/elsewhere")

		updates, props := m.updateState()
		assert.GreaterOrEqual(t, updates, 1)
		assert.Equal(t, "/elsewhere", props.Location.Path)
		_, mounts, _ = m.counts()
		assert.Equal(t, 1, mounts, "active app must not remount on location change")
	})

	t.Run("should_keep_the_app_mounted_when_update_fails", func(t *testing.T) {
		m := &updatableFakeModule{updateFunc: func(context.Context, MountProps) error { return errTestUpdateRefused }}
		s, nav := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{Name: "nav", Loader: staticLoader(m), Activation: Path("/")}))

		require.NoError(t, s.Start(context.Background()))
		navigate(t, s, nav, "/elsewhere")

		status, _ := s.GetStatus("nav")
		assert.Equal(t, StatusMounted, status)
		info, _ := s.Info("nav")
		assert.Contains(t, info.LastError, "update failed")
	})

	t.Run("should_leave_non_updatable_apps_alone_while_active", func(t *testing.T) {
		m := &fakeModule{}
		s, nav := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{Name: "nav", Loader: staticLoader(m), Activation: Path("/")}))

		require.NoError(t, s.Start(context.Background()))
		navigate(t, s, nav, "/elsewhere")

		status, _ := s.GetStatus("nav")
		assert.Equal(t, StatusMounted, status)
		_, mounts, unmounts := m.counts()
		assert.Equal(t, 1, mounts)
		assert.Equal(t, 0, unmounts)
	})
}

func TestShellStartStop(t *testing.T) {
	t.Run("should_require_a_navigator_to_start", func(t *testing.T) {
		s, err := NewShell(WithLogger(&testLogger{}))
		require.NoError(t, err)
		assert.ErrorIs(t, s.Start(context.Background()), ErrNavigatorNotSet)
	})

	t.Run("should_reject_double_start_and_stop_when_idle", func(t *testing.T) {
		s, _ := newTestShell(t)
		require.NoError(t, s.Start(context.Background()))
		assert.ErrorIs(t, s.Start(context.Background()), ErrShellStarted)

		require.NoError(t, s.Stop(context.Background()))
		assert.ErrorIs(t, s.Stop(context.Background()), ErrShellNotStarted)
	})

	t.Run("should_reject_triggers_before_start", func(t *testing.T) {
		s, _ := newTestShell(t)
		err := s.TriggerReconciliation(context.Background(), nil)
		assert.ErrorIs(t, err, ErrShellNotStarted)
	})

	t.Run("should_leave_mounted_apps_mounted_after_stop", func(t *testing.T) {
		m := &fakeModule{}
		s, nav := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{Name: "nav", Loader: staticLoader(m), Activation: Path("/")}))
		require.NoError(t, s.Start(context.Background()))

		require.NoError(t, s.Stop(context.Background()))

		status, _ := s.GetStatus("nav")
		assert.Equal(t, StatusMounted, status)
		_, _, unmounts := m.counts()
		assert.Equal(t, 0, unmounts)

		// Navigation while stopped must not reconcile.
		nav.GotoPath("/elsewhere")
		settings := &fakeModule{}
		require.NoError(t, s.Register(AppDescriptor{Name: "settings", Loader: staticLoader(settings), Activation: Path("/elsewhere")}))
		time.Sleep(20 * time.Millisecond)
		status, _ = s.GetStatus("settings")
		assert.Equal(t, StatusNotLoaded, status)

		// Restart picks up the location moved while stopped.
		require.NoError(t, s.Start(context.Background()))
		status, _ = s.GetStatus("settings")
		assert.Equal(t, StatusMounted, status)
	})

	t.Run("should_mount_nothing_for_an_empty_registry", func(t *testing.T) {
		s, _ := newTestShell(t)
		require.NoError(t, s.Start(context.Background()))
		assert.Empty(t, s.ListMounted())
		assert.Empty(t, s.ListApplications())
	})
}

func TestShellSkipAndReset(t *testing.T) {
	t.Run("should_reject_skip_and_reset_for_mounted_apps", func(t *testing.T) {
		m := &fakeModule{}
		s, _ := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{Name: "nav", Loader: staticLoader(m), Activation: Path("/")}))
		require.NoError(t, s.Start(context.Background()))

		assert.ErrorIs(t, s.SkipApplication("nav"), ErrInvalidAppState)
		assert.ErrorIs(t, s.ResetApplication("nav"), ErrInvalidAppState)
	})

	t.Run("should_ignore_skip_for_an_already_skipped_app", func(t *testing.T) {
		s, _ := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{Name: "app", Loader: staticLoader(&fakeModule{}), Activation: Path("/x")}))
		require.NoError(t, s.SkipApplication("app"))
		require.NoError(t, s.SkipApplication("app"))

		status, _ := s.GetStatus("app")
		assert.Equal(t, StatusSkipped, status)
	})

	t.Run("should_report_unknown_apps", func(t *testing.T) {
		s, _ := newTestShell(t)
		assert.ErrorIs(t, s.SkipApplication("ghost"), ErrAppNotFound)
		assert.ErrorIs(t, s.ResetApplication("ghost"), ErrAppNotFound)
		_, err := s.Info("ghost")
		assert.ErrorIs(t, err, ErrAppNotFound)
	})

	t.Run("should_reload_fresh_source_after_reset", func(t *testing.T) {
		var loads atomic.Int32
		loader := func(_ context.Context) (LifecycleModule, error) {
			if loads.Add(1) == 1 {
				return nil, errTestLoadRefused
			}
			return &fakeModule{}, nil
		}
		s, nav := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{Name: "flaky", Loader: loader, Activation: Path("/x")}))

		nav.GotoPath("/x")
		require.NoError(t, s.Start(context.Background()))
		status, _ := s.GetStatus("flaky")
		require.Equal(t, StatusLoadError, status)

		require.NoError(t, s.ResetApplication("flaky"))
		settle(t, s)

		status, _ = s.GetStatus("flaky")
		assert.Equal(t, StatusMounted, status)
		assert.Equal(t, int32(2), loads.Load())

		info, _ := s.Info("flaky")
		assert.Empty(t, info.LastError, "reset must clear the recorded error")
	})
}

func TestShellHistory(t *testing.T) {
	t.Run("should_record_transitions_in_order", func(t *testing.T) {
		m := &fakeModule{}
		s, nav := newTestShell(t)
		require.NoError(t, s.Register(AppDescriptor{Name: "app", Loader: staticLoader(m), Activation: Path("/x")}))

		nav.GotoPath("/x")
		require.NoError(t, s.Start(context.Background()))

		var statuses []AppStatus
		for _, ev := range s.History() {
			statuses = append(statuses, ev.To)
		}
		assert.Equal(t, []AppStatus{
			StatusLoading, StatusNotBootstrapped,
			StatusBootstrapping, StatusNotMounted,
			StatusMounting, StatusMounted,
		}, statuses)
	})

	t.Run("should_drop_the_oldest_events_beyond_capacity", func(t *testing.T) {
		m := &fakeModule{}
		s, nav := newTestShell(t, WithHistoryCapacity(4))
		require.NoError(t, s.Register(AppDescriptor{Name: "app", Loader: staticLoader(m), Activation: Path("/x")}))

		nav.GotoPath("/x")
		require.NoError(t, s.Start(context.Background()))

		events := s.History()
		require.Len(t, events, 4)
		assert.Equal(t, StatusBootstrapping, events[0].To)
		assert.Equal(t, StatusMounted, events[3].To)
	})
}

func TestShellTransitionHook(t *testing.T) {
	t.Run("should_invoke_the_hook_for_every_transition", func(t *testing.T) {
		var mu sync.Mutex
		var seen []AppStatus
		hook := func(ev TransitionEvent) {
			mu.Lock()
			seen = append(seen, ev.To)
			mu.Unlock()
		}

		m := &fakeModule{}
		s, nav := newTestShell(t, WithTransitionHook(hook))
		require.NoError(t, s.Register(AppDescriptor{Name: "app", Loader: staticLoader(m), Activation: Path("/x")}))

		nav.GotoPath("/x")
		require.NoError(t, s.Start(context.Background()))

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []AppStatus{
			StatusLoading, StatusNotBootstrapped,
			StatusBootstrapping, StatusNotMounted,
			StatusMounting, StatusMounted,
		}, seen)
	})

	t.Run("should_contain_a_panicking_hook", func(t *testing.T) {
		hook := func(TransitionEvent) { panic("bad hook") }
		m := &fakeModule{}
		s, nav := newTestShell(t, WithTransitionHook(hook))
		require.NoError(t, s.Register(AppDescriptor{Name: "app", Loader: staticLoader(m), Activation: Path("/x")}))

		nav.GotoPath("/x")
		require.NoError(t, s.Start(context.Background()))

		status, _ := s.GetStatus("app")
		assert.Equal(t, StatusMounted, status)
	})
}

package corerun

import "github.com/joeycumines/go-corerun/internal/callerid"

const (
	defaultRegionCapacity      = 64
	defaultTaskCapacity        = 1024
	defaultObligationCapacity  = 256
	defaultCaptureArenaBytes   = 512
	defaultCleanupStackDepth   = 32
	defaultCauseChainDepthCap  = 8
	defaultCleanupPollsDefault = 1000
)

// runtimeOptions accumulates Option values before the arenas are sized
// and allocated, following the teacher's resolveLoopOptions pattern
// (eventloop/options.go).
type runtimeOptions struct {
	platform           PlatformProfile
	safety             SafetyProfile
	regionCapacity     int
	taskCapacity       int
	obligationCapacity int
	captureArenaBytes  int
	cleanupStackDepth  int
	quarantine         bool
	hooks              *Hooks
}

// Option configures a Runtime at construction time.
type Option func(*runtimeOptions)

// WithPlatformProfile selects the active platform profile. Defaults to
// PlatformCore.
func WithPlatformProfile(p PlatformProfile) Option {
	return func(o *runtimeOptions) { o.platform = p }
}

// WithSafetyProfile selects the active safety profile. Defaults to
// SafetyRelease.
func WithSafetyProfile(p SafetyProfile) Option {
	return func(o *runtimeOptions) { o.safety = p }
}

// WithRegionCapacity sets the fixed region arena capacity.
func WithRegionCapacity(n int) Option {
	return func(o *runtimeOptions) { o.regionCapacity = n }
}

// WithTaskCapacity sets the fixed task arena capacity.
func WithTaskCapacity(n int) Option {
	return func(o *runtimeOptions) { o.taskCapacity = n }
}

// WithObligationCapacity sets the fixed obligation arena capacity.
func WithObligationCapacity(n int) Option {
	return func(o *runtimeOptions) { o.obligationCapacity = n }
}

// WithCaptureArenaSize sets the per-region captured-task-state arena size
// in bytes. Defaults to 512, per spec.md 3.2.
func WithCaptureArenaSize(n int) Option {
	return func(o *runtimeOptions) { o.captureArenaBytes = n }
}

// WithCleanupStackDepth sets the per-region cleanup stack depth.
func WithCleanupStackDepth(n int) Option {
	return func(o *runtimeOptions) { o.cleanupStackDepth = n }
}

// WithQuarantine forbids reuse of CLOSED region slots, as a diagnostic
// aid (spec.md 3.2).
func WithQuarantine(enabled bool) Option {
	return func(o *runtimeOptions) { o.quarantine = enabled }
}

// WithHooks installs a pre-built Hooks table instead of HooksInit's
// defaults. The table is still validated against the runtime's
// determinism posture during New.
func WithHooks(h Hooks) Option {
	return func(o *runtimeOptions) { o.hooks = &h }
}

func resolveOptions(opts []Option) *runtimeOptions {
	o := &runtimeOptions{
		platform:           PlatformCore,
		safety:             SafetyRelease,
		regionCapacity:     defaultRegionCapacity,
		taskCapacity:       defaultTaskCapacity,
		obligationCapacity: defaultObligationCapacity,
		captureArenaBytes:  defaultCaptureArenaBytes,
		cleanupStackDepth:  defaultCleanupStackDepth,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(o)
	}
	return o
}

// Runtime owns the three global arenas (regions, tasks, obligations), the
// hooks table, and the scheduler's event log. It is the single value
// through which every core operation flows; there is no package-level
// mutable state.
type Runtime struct {
	platform PlatformProfile
	safety   SafetyProfile

	hooks          Hooks
	allocatorSealed bool

	regions     []regionSlot
	quarantine  bool

	tasks []taskSlot

	obligations []obligationSlot

	captureArenaBytes int
	cleanupStackDepth int

	eventSeq uint64
	events   []Event
	observer EventObserver

	lastRecovered any

	owner *callerid.Guard
}

// New constructs a Runtime, validating its hooks against its determinism
// posture (every profile except PlatformParallel is deterministic).
func New(opts ...Option) (*Runtime, error) {
	o := resolveOptions(opts)

	h := HooksInit()
	if o.hooks != nil {
		h = *o.hooks
	}
	deterministic := o.platform != PlatformParallel
	if err := HooksValidate(h, deterministic); err != nil {
		return nil, err
	}

	rt := &Runtime{
		platform:          o.platform,
		safety:            o.safety,
		hooks:             h,
		regions:           make([]regionSlot, o.regionCapacity),
		quarantine:        o.quarantine,
		tasks:             make([]taskSlot, o.taskCapacity),
		obligations:       make([]obligationSlot, o.obligationCapacity),
		captureArenaBytes: o.captureArenaBytes,
		cleanupStackDepth: o.cleanupStackDepth,
	}
	if o.safety == SafetyDebug {
		rt.owner = callerid.NewGuard()
	}
	return rt, nil
}

// checkSingleWriter panics if called from a goroutine other than the one
// that first called into this Runtime, but only under SafetyDebug; other
// safety profiles pay zero cost for this check.
func (rt *Runtime) checkSingleWriter() {
	if rt.owner != nil {
		rt.owner.Check()
	}
}

// PlatformProfile returns the runtime's active platform profile.
func (rt *Runtime) PlatformProfile() PlatformProfile { return rt.platform }

// SafetyProfile returns the runtime's active safety profile.
func (rt *Runtime) SafetyProfile() SafetyProfile { return rt.safety }

// SetHooks validates and installs a new hooks table.
func (rt *Runtime) SetHooks(h Hooks) error {
	rt.checkSingleWriter()
	deterministic := rt.platform != PlatformParallel
	if err := HooksValidate(h, deterministic); err != nil {
		return err
	}
	rt.hooks = h
	return nil
}

// GetHooks returns the currently installed hooks table.
func (rt *Runtime) GetHooks() Hooks {
	return rt.hooks
}

// SealAllocator latches an irreversible flag; after sealing, Alloc
// returns allocator-sealed.
func (rt *Runtime) SealAllocator() {
	rt.checkSingleWriter()
	rt.allocatorSealed = true
}

// Alloc dispatches through the installed Allocator, unless sealed.
func (rt *Runtime) Alloc(n int) ([]byte, error) {
	rt.checkSingleWriter()
	if rt.allocatorSealed {
		return nil, fault("runtime_alloc", StatusAllocatorSealed)
	}
	rt.emitHookEvent(EventHook)
	return rt.hooks.Allocator.Malloc(n), nil
}

// Realloc dispatches through the installed Allocator, unless sealed.
func (rt *Runtime) Realloc(buf []byte, n int) ([]byte, error) {
	rt.checkSingleWriter()
	if rt.allocatorSealed {
		return nil, fault("runtime_realloc", StatusAllocatorSealed)
	}
	rt.emitHookEvent(EventHook)
	return rt.hooks.Allocator.Realloc(buf, n), nil
}

// Free dispatches through the installed Allocator.
func (rt *Runtime) Free(buf []byte) {
	rt.checkSingleWriter()
	rt.hooks.Allocator.Free(buf)
}

// NowNS dispatches through the installed Clock's logical counter, and
// logs the nondeterministic-boundary event to the attached observer.
func (rt *Runtime) NowNS() int64 {
	rt.checkSingleWriter()
	rt.emitHookEvent(EventHook)
	return rt.hooks.Clock.LogicalNowNS()
}

// RandomU64 dispatches through the installed Entropy source, if any.
func (rt *Runtime) RandomU64() (uint64, error) {
	rt.checkSingleWriter()
	if rt.hooks.Entropy == nil {
		return 0, fault("runtime_random_u64", StatusHookMissing)
	}
	rt.emitHookEvent(EventHook)
	return rt.hooks.Entropy.RandomU64(), nil
}

// ReactorWait dispatches through the installed Reactor, if any.
func (rt *Runtime) ReactorWait(budget Budget) error {
	rt.checkSingleWriter()
	if rt.hooks.Reactor == nil {
		return fault("runtime_reactor_wait", StatusHookMissing)
	}
	rt.emitHookEvent(EventHook)
	return rt.hooks.Reactor.Wait(budget)
}

// LogWrite dispatches through the installed LogSink.
func (rt *Runtime) LogWrite(level LogLevel, msg string, fields ...KV) {
	rt.hooks.Log.Write(level, msg, fields...)
}

// SetEventObserver attaches an external observer that receives every
// scheduler Event as it is emitted. Pass nil to detach.
func (rt *Runtime) SetEventObserver(o EventObserver) {
	rt.observer = o
}

// Reset restores the Runtime to its freshly-constructed state: all
// arenas are cleared, hooks revert to HooksInit defaults, and the
// allocator seal is released. Intended for test harnesses and
// replay-equivalence checks (corresponds to the "runtime reset" public
// operation in spec.md 6.1).
func (rt *Runtime) Reset() {
	for i := range rt.regions {
		rt.regions[i] = regionSlot{}
	}
	for i := range rt.tasks {
		rt.tasks[i] = taskSlot{}
	}
	for i := range rt.obligations {
		rt.obligations[i] = obligationSlot{}
	}
	rt.hooks = HooksInit()
	rt.allocatorSealed = false
	rt.eventSeq = 0
	rt.events = nil
	rt.lastRecovered = nil
}

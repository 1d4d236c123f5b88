package ecs

import (
	"context"
	"fmt"
	"log"
	"reflect"
	"sort"
	"time"

	"github.com/rotisserie/eris"
)

// FailurePolicy decides what a pass does when a system fails.
type FailurePolicy int

const (
	// FailIsolate logs the failure and continues with the next system.
	FailIsolate FailurePolicy = iota
	// FailAbort stops the pass and returns the failure from Once.
	FailAbort
)

// SystemError reports a failed system execution. It matches both
// ErrSystemFailed and the underlying cause with errors.Is.
type SystemError struct {
	System string
	Frame  uint64
	Err    error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("system %s failed in frame %d: %v", e.System, e.Frame, e.Err)
}

func (e *SystemError) Unwrap() []error {
	return []error{ErrSystemFailed, e.Err}
}

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	Frames          uint64
	TotalExecutions int64
	TotalFailures   int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	Order          Order
	Enabled        bool
	ExecutionCount int64
	FailureCount   int64
	LastError      string
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	executionCount int64
	failureCount   int64
	lastError      error
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func newSystemStats() *systemStatsInternal {
	return &systemStatsInternal{
		minDuration: time.Duration(1<<63 - 1),
	}
}

func (st *systemStatsInternal) record(duration time.Duration, err error) {
	st.executionCount++
	st.lastDuration = duration
	st.totalDuration += duration
	if duration < st.minDuration {
		st.minDuration = duration
	}
	if duration > st.maxDuration {
		st.maxDuration = duration
	}
	if err != nil {
		st.failureCount++
		st.lastError = err
	}
}

// registration is the scheduler's record of one system.
type registration struct {
	system     System
	systemType reflect.Type
	name       string
	order      Order
	seq        uint64
	enabled    bool
	stats      *systemStatsInternal
}

func (r *registration) before(other *registration) bool {
	if r.order != other.order {
		return r.order < other.order
	}
	return r.seq < other.seq
}

// Registration describes a registered system.
type Registration struct {
	System  System
	Type    reflect.Type
	Name    string
	Order   Order
	Enabled bool
}

// Scheduler keeps the registered systems ordered by order category, then by
// registration sequence, and runs the enabled ones once per pass. At most one
// system per concrete type is registered.
type Scheduler struct {
	env           *Environment
	logger        *log.Logger
	policy        FailurePolicy
	slowThreshold time.Duration

	records []*registration
	nextSeq uint64
	frame   uint64

	// systems taken out by Toggle, restored when toggled back
	toggled map[reflect.Type]toggledState
}

type toggledState struct {
	order   Order
	enabled bool
}

func newScheduler(env *Environment, cfg *config) *Scheduler {
	return &Scheduler{
		env:           env,
		logger:        cfg.logger,
		policy:        cfg.failurePolicy,
		slowThreshold: cfg.slowSystemThreshold,
		toggled:       make(map[reflect.Type]toggledState),
	}
}

// Add registers a system in its declared order category. A system of the same
// concrete type is replaced: the old one is removed and the new one is
// appended to the end of its category, enabled.
func (s *Scheduler) Add(system System) {
	s.AddAt(declaredOrder(system), system)
}

// AddAt is Add with an explicit order category.
func (s *Scheduler) AddAt(order Order, system System) {
	if system == nil {
		panic("cannot add a nil system")
	}
	systemType := SystemTypeOf(system)
	s.Remove(systemType)
	s.insert(&registration{
		system:     system,
		systemType: systemType,
		name:       systemName(systemType),
		order:      order,
		enabled:    true,
		stats:      newSystemStats(),
	})
}

// Replace swaps in system for the registered one of the same concrete type,
// keeping its position, enabled flag and stats. It adds the system if none
// of that type is registered.
func (s *Scheduler) Replace(system System) {
	if rec := s.find(SystemTypeOf(system)); rec != nil {
		rec.system = system
		return
	}
	s.Add(system)
}

// Register is the strict variant of Add: it fails with ErrSystemPresent when
// a system of the same concrete type is registered.
func (s *Scheduler) Register(system System) error {
	systemType := SystemTypeOf(system)
	if s.IsPresent(systemType) {
		return eris.Wrapf(ErrSystemPresent, "system %s", systemName(systemType))
	}
	s.Add(system)
	return nil
}

func (s *Scheduler) insert(rec *registration) {
	rec.seq = s.nextSeq
	s.nextSeq++
	delete(s.toggled, rec.systemType)

	pos := sort.Search(len(s.records), func(i int) bool {
		return rec.before(s.records[i])
	})
	s.records = append(s.records, nil)
	copy(s.records[pos+1:], s.records[pos:])
	s.records[pos] = rec
}

// Remove unregisters every system of the given concrete type. It reports
// whether anything was removed.
func (s *Scheduler) Remove(systemType reflect.Type) bool {
	removed := false
	kept := s.records[:0]
	for _, rec := range s.records {
		if rec.systemType == systemType {
			removed = true
			continue
		}
		kept = append(kept, rec)
	}
	clear(s.records[len(kept):])
	s.records = kept
	return removed
}

// Toggle removes the registered system of system's concrete type, or adds
// system if none is registered. Toggling twice restores presence, order
// category and the enabled flag.
func (s *Scheduler) Toggle(system System) {
	systemType := SystemTypeOf(system)
	if rec := s.find(systemType); rec != nil {
		s.Remove(systemType)
		s.toggled[systemType] = toggledState{order: rec.order, enabled: rec.enabled}
		return
	}

	saved, wasToggled := s.toggled[systemType]
	if !wasToggled {
		s.Add(system)
		return
	}
	s.AddAt(saved.order, system)
	s.find(systemType).enabled = saved.enabled
}

// IsPresent reports whether a system of the given type is registered.
func (s *Scheduler) IsPresent(systemType reflect.Type) bool {
	return s.find(systemType) != nil
}

// Enable marks a registered system as enabled. It reports whether the type
// is registered.
func (s *Scheduler) Enable(systemType reflect.Type) bool {
	return s.setEnabled(systemType, true)
}

// Disable keeps a system registered, and in position, but skips it during
// passes. It reports whether the type is registered.
func (s *Scheduler) Disable(systemType reflect.Type) bool {
	return s.setEnabled(systemType, false)
}

func (s *Scheduler) setEnabled(systemType reflect.Type, enabled bool) bool {
	rec := s.find(systemType)
	if rec == nil {
		return false
	}
	rec.enabled = enabled
	return true
}

// IsEnabled reports whether the system is registered and enabled.
func (s *Scheduler) IsEnabled(systemType reflect.Type) bool {
	rec := s.find(systemType)
	return rec != nil && rec.enabled
}

func (s *Scheduler) find(systemType reflect.Type) *registration {
	for _, rec := range s.records {
		if rec.systemType == systemType {
			return rec
		}
	}
	return nil
}

// Systems returns the registered systems in execution order, including the
// disabled ones.
func (s *Scheduler) Systems() []System {
	systems := make([]System, len(s.records))
	for i, rec := range s.records {
		systems[i] = rec.system
	}
	return systems
}

// Registrations returns a description of every registered system in
// execution order.
func (s *Scheduler) Registrations() []Registration {
	regs := make([]Registration, len(s.records))
	for i, rec := range s.records {
		regs[i] = Registration{
			System:  rec.system,
			Type:    rec.systemType,
			Name:    rec.name,
			Order:   rec.order,
			Enabled: rec.enabled,
		}
	}
	return regs
}

// Len returns the number of registered systems.
func (s *Scheduler) Len() int {
	return len(s.records)
}

// Frame returns the number of passes started so far.
func (s *Scheduler) Frame() uint64 {
	return s.frame
}

// Once executes every enabled system once with the given delta time, then
// flushes the frame's command buffer.
//
// Systems added or removed while the pass is running take effect for every
// position after the running system. Each system type runs at most once per
// pass, even when it re-adds itself. With FailIsolate a failing system is
// logged and skipped for this frame; with FailAbort the pass stops and the
// failure is returned.
func (s *Scheduler) Once(dt float64) error {
	s.frame++
	frame := newUpdateFrame(dt, s.frame, s.env)

	var failure error
	ran := make(map[reflect.Type]struct{}, len(s.records))
	for rec := s.next(nil); rec != nil; rec = s.next(rec) {
		if !rec.enabled {
			continue
		}
		// a system re-adding its own type lands after itself again
		if _, ok := ran[rec.systemType]; ok {
			continue
		}
		ran[rec.systemType] = struct{}{}

		err := s.execute(rec, frame)
		if err == nil {
			continue
		}
		if s.policy == FailAbort {
			failure = err
			break
		}
		s.logger.Printf("ecs: %v", err)
	}

	if err := frame.Commands.Flush(s.env.storage); err != nil {
		s.logger.Printf("ecs: frame %d: %v", frame.Frame, err)
	}
	return failure
}

// next returns the first registration ordered after last, which may itself
// have been removed in the meantime.
func (s *Scheduler) next(last *registration) *registration {
	pos := 0
	if last != nil {
		pos = sort.Search(len(s.records), func(i int) bool {
			return last.before(s.records[i])
		})
	}
	if pos >= len(s.records) {
		return nil
	}
	return s.records[pos]
}

func (s *Scheduler) execute(rec *registration, frame *UpdateFrame) error {
	start := time.Now()
	err := invoke(rec.system, frame)
	duration := time.Since(start)

	if err != nil {
		err = &SystemError{System: rec.name, Frame: frame.Frame, Err: err}
	}
	rec.stats.record(duration, err)

	if s.slowThreshold > 0 && duration > s.slowThreshold {
		s.logger.Printf("ecs: system %s took %s in frame %d", rec.name, duration, frame.Frame)
	}
	return err
}

func invoke(system System, frame *UpdateFrame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("panic: %v", r)
		}
	}()
	return system.Execute(frame)
}

// Run executes all systems repeatedly at the given interval until the
// context is cancelled. It returns early with the failure when a pass fails
// under FailAbort.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			if err := s.Once(dt); err != nil {
				return err
			}
		}
	}
}

// Stats returns statistics about system execution in execution order.
func (s *Scheduler) Stats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(s.records),
		Frames:      s.frame,
		Systems:     make([]SystemStats, len(s.records)),
	}

	for i, rec := range s.records {
		internal := rec.stats
		avgDuration := time.Duration(0)
		minDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
			minDuration = internal.minDuration
		}

		lastError := ""
		if internal.lastError != nil {
			lastError = internal.lastError.Error()
		}

		stats.Systems[i] = SystemStats{
			Name:           rec.name,
			Order:          rec.order,
			Enabled:        rec.enabled,
			ExecutionCount: internal.executionCount,
			FailureCount:   internal.failureCount,
			LastError:      lastError,
			MinDuration:    minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		stats.TotalExecutions += internal.executionCount
		stats.TotalFailures += internal.failureCount
	}

	return stats
}

package region

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ppdb/core"
)

var (
	ErrStepClosed   = errors.New("address step is closed")
	ErrStepNotFound = errors.New("address step not found")
	ErrStepLoaded   = errors.New("address step already started")
)

type StepOptions struct {
	// OnChange is fired after every successful Select and SetFields, with the current best-effort record.
	// It is not fired by resolution; View reports the progress of a step at any time.
	OnChange func(rec AddressRecord)
	// OnSave is fired by Submit with the mapped record.
	OnSave func(ctx context.Context, rec AddressRecord) error

	Logger core.Logger
	// ResolveTimeout bounds the whole resolution chain; zero means no bound.
	ResolveTimeout time.Duration
}

// Step is an address-step session: the region selection of one applicant, the options
// currently loaded for every level and the freeform fields.
// It is safe for concurrent use. Source queries and callbacks run outside its lock.
type Step struct {
	src  Source
	opts StepOptions

	mu      sync.Mutex
	machine Machine
	nodes   NodeSets
	fields  Freeform
	// gen[l] changes whenever the options of level l are invalidated; fetches started
	// under an older generation are dropped.
	gen     [levelCount]uint64
	started bool
	closed  bool
	settled bool
	done    chan struct{}
	cancel  context.CancelFunc
}

func NewStep(src Source, opts StepOptions) *Step {
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	return &Step{
		src:  src,
		opts: opts,
		done: make(chan struct{}),
	}
}

// Load fills the freeform fields from rec and starts resolving its region names in the background.
// It must be the first call on a Step.
func (s *Step) Load(rec *AddressRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStepClosed
	}
	if s.started {
		return ErrStepLoaded
	}
	s.started = true

	var copied *AddressRecord
	if rec != nil {
		r := *rec
		copied = &r
		s.fields = r.Freeform()
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if s.opts.ResolveTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), s.opts.ResolveTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	s.cancel = cancel
	go s.resolve(ctx, copied)
	return nil
}

func (s *Step) resolve(ctx context.Context, rec *AddressRecord) {
	res := Resolve(ctx, s.src, rec)
	if res.Err != nil {
		s.opts.Logger.Warn("address resolution cut short", res.Err)
	} else if rec != nil && rec.HasHierarchy() && res.Depth() < levelCount {
		s.opts.Logger.Debug("address resolved partially", map[string]interface{}{"depth": res.Depth()})
	}
	if res.Nodes[Province] == nil && res.Err == nil {
		nodes, err := s.src.ListProvinces(ctx)
		if err != nil {
			s.opts.Logger.Warn("listing provinces", err)
		}
		res.Nodes[Province] = nodes
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.machine.ApplyResolved(res.Selection) {
		s.nodes = res.Nodes
		for l := range s.gen {
			s.gen[l]++
		}
	} else if s.nodes[Province] == nil && res.Nodes[Province] != nil {
		s.nodes[Province] = res.Nodes[Province]
	}
	s.settleLocked()
}

// settleLocked releases Wait once the selection no longer depends on the resolver.
func (s *Step) settleLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if !s.settled {
		s.settled = true
		close(s.done)
	}
}

// Wait blocks until the selection is resolved, by the resolver or by a user selection.
func (s *Step) Wait(ctx context.Context) error {
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStepClosed
	}
	return nil
}

type fetchRequest struct {
	level  Level
	parent NodeID
	gen    uint64
}

// Select selects id (or Unset) at level l, drops the options below l and loads the
// options of the level below l. Options of l itself are loaded when missing.
func (s *Step) Select(ctx context.Context, l Level, id NodeID) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStepClosed
	}
	if err := s.machine.SelectAt(l, id); err != nil {
		s.mu.Unlock()
		return err
	}
	s.started = true
	s.settleLocked()

	for lvl := l + 1; lvl <= Village; lvl++ {
		s.nodes[lvl] = nil
		s.gen[lvl]++
	}
	var fetches []fetchRequest
	if s.nodes[l] == nil && (l == Province || s.machine.sel.ids[l-1].IsSet()) {
		var parent NodeID
		if l > Province {
			parent = s.machine.sel.ids[l-1]
		}
		fetches = append(fetches, fetchRequest{level: l, parent: parent, gen: s.gen[l]})
	}
	if child, ok := l.Child(); ok && id.IsSet() {
		fetches = append(fetches, fetchRequest{level: child, parent: id, gen: s.gen[child]})
	}
	s.mu.Unlock()

	for _, f := range fetches {
		s.fetch(ctx, f)
	}
	s.notify()
	return nil
}

func (s *Step) fetch(ctx context.Context, f fetchRequest) {
	nodes, err := Children(ctx, s.src, f.level, f.parent)
	if err != nil {
		s.opts.Logger.Warn("listing "+f.level.String()+" options", err)
		return
	}
	if nodes == nil {
		nodes = Nodes{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.gen[f.level] != f.gen {
		return
	}
	if f.level > Province && s.machine.sel.ids[f.level-1] != f.parent {
		return
	}
	s.nodes[f.level] = nodes
}

// Refresh loads the options missing after a source failure: those of every level whose parent
// is selected. It does nothing until the selection is resolved.
func (s *Step) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStepClosed
	}
	var fetches []fetchRequest
	if s.settled {
		for _, l := range Levels {
			if s.nodes[l] != nil {
				continue
			}
			var parent NodeID
			if l > Province {
				if parent = s.machine.sel.ids[l-1]; !parent.IsSet() {
					continue
				}
			}
			fetches = append(fetches, fetchRequest{level: l, parent: parent, gen: s.gen[l]})
		}
	}
	s.mu.Unlock()

	for _, f := range fetches {
		s.fetch(ctx, f)
	}
	return nil
}

// SetFields replaces the freeform fields.
func (s *Step) SetFields(ff Freeform) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStepClosed
	}
	s.started = true
	s.fields = ff
	s.mu.Unlock()

	s.notify()
	return nil
}

func (s *Step) notify() {
	if s.opts.OnChange == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	rec := s.recordLocked()
	s.mu.Unlock()
	s.opts.OnChange(rec)
}

// recordLocked is the best-effort record: unmapped levels stay empty.
func (s *Step) recordLocked() AddressRecord {
	rec, err := ToRecord(s.machine.Selection(), s.nodes, s.fields)
	if err != nil {
		s.fields.merge(&rec)
	}
	return rec
}

// Submit waits for the selection to resolve, maps it to a record and hands it to OnSave.
// The session is left unchanged whatever the outcome.
func (s *Step) Submit(ctx context.Context) (AddressRecord, error) {
	if err := s.Wait(ctx); err != nil {
		return AddressRecord{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return AddressRecord{}, ErrStepClosed
	}
	rec, err := ToRecord(s.machine.Selection(), s.nodes, s.fields)
	s.mu.Unlock()
	if err != nil {
		s.opts.Logger.Error("mapping address selection", err)
		return AddressRecord{}, err
	}

	if s.opts.OnSave != nil {
		if err := s.opts.OnSave(ctx, rec); err != nil {
			return AddressRecord{}, errors.Wrap(err, "saving address")
		}
	}
	return rec, nil
}

// Close discards the session. Responses still in flight are ignored.
func (s *Step) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.settleLocked()
}

func (s *Step) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type (
	LevelView struct {
		Level    Level  `json:"level"`
		Selected NodeID `json:"selected"`
		Options  Nodes  `json:"options"`
	}

	StepView struct {
		Resolved  bool          `json:"resolved"`
		Levels    []LevelView   `json:"levels"`
		Fields    Freeform      `json:"fields"`
		Record    AddressRecord `json:"record"`
		Completed int           `json:"completed"`
		Total     int           `json:"total"`
	}
)

// View is a snapshot of the session. A level whose parent is not selected has no options.
func (s *Step) View() (StepView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return StepView{}, ErrStepClosed
	}

	sel := s.machine.Selection()
	rec := s.recordLocked()
	view := StepView{
		Resolved:  sel.Resolved(),
		Levels:    make([]LevelView, 0, levelCount),
		Fields:    s.fields,
		Record:    rec,
		Completed: rec.Filled(),
		Total:     FieldCount,
	}
	for _, l := range Levels {
		opts := Nodes{}
		if (l == Province || sel.ids[l-1].IsSet()) && s.nodes[l] != nil {
			opts = append(opts, s.nodes[l]...)
		}
		view.Levels = append(view.Levels, LevelView{Level: l, Selected: sel.ids[l], Options: opts})
	}
	return view, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

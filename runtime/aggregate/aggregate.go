// Package aggregate folds parsed trace records into per-script API usage.
//
// An Aggregate is a single-threaded reducer. Records must arrive in
// strictly increasing line order; a record that violates an invariant is
// rejected with an error and leaves the state untouched, so callers can
// log it and continue with the next record.
package aggregate

import (
	"fmt"
	"maps"
	"slices"

	"github.com/opal-lang/vv8log/core/invariant"
	"github.com/opal-lang/vv8log/core/types"
)

// PlaceholderOffset marks a call with no real source position.
const PlaceholderOffset = -1

// GenericMethod is the method name the engine reports for calls through
// Function.prototype helpers; it carries no API identity.
const GenericMethod = "Function"

// Aggregate accumulates the scripts of one trace log.
type Aggregate struct {
	scripts map[int32]*Script

	currentID  int32
	hasCurrent bool

	// interaction latches once any interaction script executes.
	interaction bool

	lastLine uint32
	started  bool

	cfg Config
}

// New returns an empty aggregate
func New(opts ...Option) *Aggregate {
	return &Aggregate{
		scripts:   make(map[int32]*Script),
		currentID: types.UnsureScriptID,
		cfg:       newConfig(opts),
	}
}

// Script returns the script registered under id
func (a *Aggregate) Script(id int32) (*Script, bool) {
	s, ok := a.scripts[id]
	return s, ok
}

// ScriptIDs returns the registered IDs in ascending order
func (a *Aggregate) ScriptIDs() []int32 {
	return slices.Sorted(maps.Keys(a.scripts))
}

// CurrentScript returns the ID of the executing script, if one is set
func (a *Aggregate) CurrentScript() (int32, bool) {
	return a.currentID, a.hasCurrent
}

// InteractionStarted reports whether an interaction script has executed
func (a *Aggregate) InteractionStarted() bool {
	return a.interaction
}

// Add applies one record at the given line index. A non-nil error means
// the record was rejected and nothing changed.
func (a *Aggregate) Add(line uint32, record types.Record) error {
	invariant.NotNil(record, "record")

	if a.started && line <= a.lastLine {
		return fmt.Errorf("%w: %d after %d", ErrLineOutOfOrder, line, a.lastLine)
	}

	var err error
	switch r := record.(type) {
	case types.IsolateContext:
		a.cfg.logger.Debug("isolate context", "line", line, "address", fmt.Sprintf("%#x", r.Address))
	case types.WindowOrigin:
		a.cfg.logger.Debug("window origin", "line", line, "origin", r.Value.String())
	case types.ScriptProvenance:
		err = a.addScript(line, r)
	case types.ExecutionContext:
		err = a.enter(line, r.ScriptID)
	case types.FunctionCall:
		err = a.addFunctionCall(line, r)
	case types.ConstructionCall:
		err = a.addConstructionCall(line, r)
	case types.GetProperty:
		err = a.addProperty(line, APIGet, r.Object, r.Property)
	case types.SetProperty:
		err = a.addProperty(line, APISet, r.Object, r.Property)
	default:
		invariant.Invariant(false, "unhandled record type %T", record)
	}
	if err != nil {
		return err
	}

	a.lastLine = line
	a.started = true
	return nil
}

// Fold adds every entry, collecting the rejected ones.
func (a *Aggregate) Fold(entries []types.Entry) []Failure {
	var failures []Failure
	for _, e := range entries {
		if err := a.Add(e.Line, e.Record); err != nil {
			a.cfg.logger.Debug("record rejected", "line", e.Line+1, "tag", types.TagName(e.Record.Tag()), "error", err)
			failures = append(failures, Failure{Line: e.Line, Err: err})
		}
	}
	return failures
}

func (a *Aggregate) addScript(line uint32, r types.ScriptProvenance) error {
	if _, exists := a.scripts[r.ID]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateScript, r.ID)
	}

	name, err := resolveScriptName(r.Name)
	if err != nil {
		return err
	}

	var injected bool
	switch name.Kind {
	case NameEmpty:
		injected = true
	case NameEval:
		parent, ok := a.scripts[name.ParentID]
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownParentScript, name.ParentID)
		}
		injected = parent.Injection != NotInjected
	}

	injection := NotInjected
	if injected {
		injection = Injected
		if a.cfg.detector.IsInteraction(r.Source) {
			injection = Interaction
		}
	}

	a.scripts[r.ID] = &Script{
		Line:      line,
		Name:      name,
		Source:    r.Source,
		Injection: injection,
		Calls:     make(map[APICall]*CallLines),
	}
	return nil
}

func (a *Aggregate) enter(line uint32, id int32) error {
	if id == types.UnsureScriptID {
		a.cfg.logger.Debug("unsure execution context ignored", "line", line)
		return nil
	}
	script, ok := a.scripts[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownScript, id)
	}
	a.currentID = id
	a.hasCurrent = true
	if script.Injection == Interaction {
		a.interaction = true
	}
	return nil
}

func (a *Aggregate) current() (*Script, error) {
	if !a.hasCurrent {
		return nil, ErrNoCurrentScript
	}
	script, ok := a.scripts[a.currentID]
	invariant.Invariant(ok, "current script %d is not registered", a.currentID)
	return script, nil
}

func (a *Aggregate) addFunctionCall(line uint32, r types.FunctionCall) error {
	script, err := a.current()
	if err != nil {
		return err
	}
	if r.UserDefined || r.Offset == PlaceholderOffset {
		script.Filtered++
		return nil
	}
	receiver, ok := callReceiver(r.Method, r.Receiver)
	if !ok {
		script.Filtered++
		return nil
	}
	a.record(script, line, APICall{
		Kind:         APIFunction,
		Receiver:     receiver,
		Attribute:    r.Method,
		HasAttribute: true,
	})
	return nil
}

func (a *Aggregate) addConstructionCall(line uint32, r types.ConstructionCall) error {
	script, err := a.current()
	if err != nil {
		return err
	}
	if r.UserDefined {
		script.Filtered++
		return nil
	}
	a.record(script, line, APICall{Kind: APIConstruction, Receiver: r.Method})
	return nil
}

func (a *Aggregate) addProperty(line uint32, kind APIKind, object, property types.Value) error {
	script, err := a.current()
	if err != nil {
		return err
	}
	receiver, attribute, ok, err := propertyTarget(object, property)
	if err != nil {
		return err
	}
	if !ok {
		script.Filtered++
		return nil
	}
	a.record(script, line, APICall{
		Kind:         kind,
		Receiver:     receiver,
		Attribute:    attribute,
		HasAttribute: true,
	})
	return nil
}

// record appends line to the call's occurrences, or counts the call as
// filtered when its names are implausible.
func (a *Aggregate) record(script *Script, line uint32, call APICall) {
	if !a.cfg.names.Plausible(call) {
		script.Filtered++
		return
	}

	lines, ok := script.Calls[call]
	if !ok {
		lines = &CallLines{}
		script.Calls[call] = lines
	}
	if a.interaction && lines.InteractionBoundary == nil {
		boundary := len(lines.Lines)
		lines.InteractionBoundary = &boundary
	}

	if n := len(lines.Lines); n > 0 {
		invariant.Invariant(lines.Lines[n-1] < line, "%s: line %d after %d", call, line, lines.Lines[n-1])
	}
	lines.Lines = append(lines.Lines, line)
}

// callReceiver names the `this` of a function call. Object references use
// their constructor and builtin functions their name. Primitive, literal
// and internal receivers become a static call with an empty receiver
// unless the method is the generic placeholder. Everything else is noise.
func callReceiver(method string, receiver types.Value) (string, bool) {
	switch v := receiver.(type) {
	case types.Object:
		return v.Constructor, true
	case types.Function:
		if v.UserDefined {
			return "", false
		}
		return v.Name, true
	case types.String, types.Int, types.Float, types.RegExp, types.Boolean,
		types.Null, types.Undefined, types.EngineInternal, types.ObjectLiteral:
		if method == GenericMethod {
			return "", false
		}
		return "", true
	default:
		return "", false
	}
}

// propertyTarget resolves the receiver and attribute of a property
// access. ok is false for accesses that are dropped as filtered; err is
// set for shapes the engine should never log.
func propertyTarget(object, property types.Value) (receiver, attribute string, ok bool, err error) {
	switch o := object.(type) {
	case types.Object:
		receiver = o.Constructor
	case types.ObjectLiteral:
		return "", "", false, nil
	default:
		return "", "", false, fmt.Errorf("%w: %s %s", ErrUnexpectedObject, object.Kind(), object)
	}

	switch p := property.(type) {
	case types.String:
		return receiver, string(p), true, nil
	case types.Object, types.ObjectUnknown, types.ObjectLiteral, types.Int, types.Float, types.Uncertain:
		return "", "", false, nil
	default:
		return "", "", false, fmt.Errorf("%w: %s %s", ErrUnexpectedProperty, property.Kind(), property)
	}
}

// Totals summarises an aggregate.
type Totals struct {
	Scripts     int `json:"scripts" yaml:"scripts"`
	Injected    int `json:"injected" yaml:"injected"`
	Interaction int `json:"interaction" yaml:"interaction"`
	// Calls is the number of distinct APICall keys across scripts.
	Calls int `json:"calls" yaml:"calls"`
	// Recorded is the number of kept call occurrences.
	Recorded int `json:"recorded" yaml:"recorded"`
	// AfterInteraction counts occurrences at or after their boundary.
	AfterInteraction int `json:"after_interaction" yaml:"after_interaction"`
	Filtered         int `json:"filtered" yaml:"filtered"`
}

// Totals counts scripts and calls across the aggregate
func (a *Aggregate) Totals() Totals {
	var t Totals
	for _, s := range a.scripts {
		t.Scripts++
		switch s.Injection {
		case Injected:
			t.Injected++
		case Interaction:
			t.Interaction++
		}
		t.Calls += len(s.Calls)
		t.Filtered += s.Filtered
		for _, lines := range s.Calls {
			t.Recorded += lines.Total()
			t.AfterInteraction += lines.AfterInteraction()
		}
	}
	return t
}

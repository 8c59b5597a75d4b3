package appshell

import (
	"errors"
	"fmt"
	"strings"
)

// ActivationRule decides whether an application should be active at a
// location. Rules must be pure: same location in, same answer out, no side
// effects. The shell re-evaluates every rule on every reconciliation pass.
//
// Matches returns the decision plus any evaluation fault encountered along
// the way. A fault does not veto a match; it is reported through the
// shell's error sink and the boolean stands on its own.
type ActivationRule interface {
	Matches(loc Location) (bool, error)
}

// ValueRule is an optional interface for rules that derive mount prop
// values from the location. Values is only consulted after Matches
// returned true; the result is overlaid onto the descriptor's Props when
// the shell builds MountProps.
type ValueRule interface {
	ActivationRule
	Values(loc Location) map[string]any
}

// Path activates on the literal path or any descendant of it. The boundary
// is a path separator: Path("/page") matches "/page" and "/page/details"
// but not "/pageX". Path("/") matches every location.
func Path(pattern string) ActivationRule {
	return pathRule(pattern)
}

// Paths activates when any of the given literal paths would. It is the OR
// of Path rules.
func Paths(patterns ...string) ActivationRule {
	return pathsRule(patterns)
}

// Predicate adapts an arbitrary location test into an ActivationRule. A
// panic inside fn is recovered and converted into an evaluation fault; the
// rule then reports a non-match.
func Predicate(fn func(Location) bool) ActivationRule {
	return predicateRule{fn: fn}
}

// AnyOf activates when any member rule does. Members are evaluated in
// declared order and the first match wins; a faulting member is recorded
// and skipped, later members are still evaluated.
func AnyOf(rules ...ActivationRule) ActivationRule {
	return anyOfRule(rules)
}

// WithValues attaches static values to a rule. When the rule matches, the
// attached values flow into MountProps.Values, overriding descriptor props
// key by key.
func WithValues(rule ActivationRule, values map[string]any) ActivationRule {
	return valuedRule{rule: rule, values: values}
}

type pathRule string

func (p pathRule) Matches(loc Location) (bool, error) {
	return matchPath(string(p), loc.Path), nil
}

type pathsRule []string

func (p pathsRule) Matches(loc Location) (bool, error) {
	for _, pattern := range p {
		if matchPath(pattern, loc.Path) {
			return true, nil
		}
	}
	return false, nil
}

type predicateRule struct {
	fn func(Location) bool
}

func (p predicateRule) Matches(loc Location) (matched bool, err error) {
	if p.fn == nil {
		return false, fmt.Errorf("%w: nil predicate", ErrActivationRule)
	}
	defer func() {
		if r := recover(); r != nil {
			matched = false
			err = fmt.Errorf("%w: predicate panicked: %v", ErrActivationRule, r)
		}
	}()
	return p.fn(loc), nil
}

type anyOfRule []ActivationRule

func (r anyOfRule) Matches(loc Location) (bool, error) {
	var errs []error
	for _, member := range r {
		ok, err := evalRule(member, loc)
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			return true, errors.Join(errs...)
		}
	}
	return false, errors.Join(errs...)
}

// Values returns the values of the first matching member, when that member
// carries any. Evaluation mirrors Matches, so the same member wins.
func (r anyOfRule) Values(loc Location) map[string]any {
	for _, member := range r {
		ok, _ := evalRule(member, loc)
		if !ok {
			continue
		}
		if vr, is := member.(ValueRule); is {
			return vr.Values(loc)
		}
		return nil
	}
	return nil
}

type valuedRule struct {
	rule   ActivationRule
	values map[string]any
}

func (v valuedRule) Matches(loc Location) (bool, error) {
	return evalRule(v.rule, loc)
}

func (v valuedRule) Values(loc Location) map[string]any {
	out := make(map[string]any, len(v.values))
	for k, val := range v.values {
		out[k] = val
	}
	if vr, is := v.rule.(ValueRule); is {
		for k, val := range vr.Values(loc) {
			out[k] = val
		}
	}
	return out
}

// matchPath implements literal path activation: equality, or prefix ending
// at a path separator. The root pattern matches everything.
func matchPath(pattern, path string) bool {
	if pattern == "" || pattern == "/" {
		return true
	}
	pattern = strings.TrimSuffix(pattern, "/")
	if path == pattern {
		return true
	}
	return strings.HasPrefix(path, pattern) && path[len(pattern)] == '/'
}

// evalRule calls rule.Matches with panic isolation, so a misbehaving custom
// rule faults only its own application.
func evalRule(rule ActivationRule, loc Location) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			matched = false
			err = fmt.Errorf("%w: rule panicked: %v", ErrActivationRule, r)
		}
	}()
	return rule.Matches(loc)
}

// ruleValues extracts the values a matched rule contributes, isolating
// panics the same way evalRule does.
func ruleValues(rule ActivationRule, loc Location) (values map[string]any) {
	vr, is := rule.(ValueRule)
	if !is {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			values = nil
		}
	}()
	return vr.Values(loc)
}

// activationSet is the resolver's output: active application names mapped
// to the values their rules contributed.
type activationSet map[string]map[string]any

// resolveActive evaluates every descriptor's rule against loc. It is pure;
// faults come back as LifecycleErrors for the reconciler to report, and a
// faulting rule counts as non-matching unless it still produced a match.
func resolveActive(loc Location, descriptors []AppDescriptor) (activationSet, []*LifecycleError) {
	active := make(activationSet, len(descriptors))
	var faults []*LifecycleError
	for _, d := range descriptors {
		ok, err := evalRule(d.Activation, loc)
		if err != nil {
			faults = append(faults, newLifecycleError(d.Name, OperationActivation, err))
		}
		if ok {
			active[d.Name] = ruleValues(d.Activation, loc)
		}
	}
	return active, faults
}

package rule

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"
)

// Action is what a matching rule does with a session.
type Action string

const (
	// Include admits the session into scoring.
	Include Action = "include"
	// Exclude drops the session before scoring.
	Exclude Action = "exclude"
)

// UnmarshalYAML accepts only the known actions.
func (a *Action) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	switch Action(raw) {
	case Include, Exclude:
		*a = Action(raw)
		return nil
	default:
		return fmt.Errorf("line %d: unknown rule action %q, want %q or %q", node.Line, raw, Include, Exclude)
	}
}

// Rule admits or excludes sessions that satisfy a CEL condition.
// The When field holds the expression and Then the action applied on a match.
// The CEL program is compiled by Init and used by Eval.
type Rule struct {
	// When is a CEL expression over the session variables; it must return a bool.
	When string `yaml:"when"`
	// Then is applied when the condition holds.
	Then Action `yaml:"then"`

	program cel.Program
}

// Init compiles When with env. Syntax errors and non-bool results are reported.
func (r *Rule) Init(env *cel.Env) error {
	ast, iss := env.Parse(r.When)
	if iss.Err() != nil {
		return iss.Err()
	}

	checked, iss := env.Check(ast)
	if iss.Err() != nil {
		return iss.Err()
	}
	if !checked.OutputType().IsExactType(cel.BoolType) {
		return fmt.Errorf("rule %q: expression must return bool, got %s", r.When, checked.OutputType())
	}

	var err error
	r.program, err = env.Program(checked)
	if err != nil {
		return err
	}

	return nil
}

// Eval runs the compiled rule against the activation. It reports whether the condition
// matched; an evaluation failure is returned as an error and never counts as a match.
func (r *Rule) Eval(activation map[string]any) (bool, error) {
	if r.program == nil {
		return false, fmt.Errorf("rule %q: not initialized", r.When)
	}

	result, _, err := r.program.Eval(activation)
	if err != nil {
		return false, err
	}

	matched, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %q: non-bool result %v", r.When, result.Value())
	}
	return matched, nil
}

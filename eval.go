package fsmsim

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
)

// maxActionStatements bounds a single action block. Pathological inputs get
// truncated instead of stalling a step.
const maxActionStatements = 256

// assignmentPattern matches "name = expression" statements. The [^=] after
// the equals sign keeps comparison operators (==) out.
var assignmentPattern = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=([^=].*)$`)

// Evaluator runs user-authored snippets against the engine's variable
// store. Snippets are compiled with expr-lang per evaluation, so they can
// only see the variable namespace plus the print helper; no file, network
// or other ambient capability is reachable from inside a snippet.
type Evaluator struct {
	vars *VariableStore
	log  *ActionLog
}

// NewEvaluator creates an evaluator bound to a store and a log
func NewEvaluator(vars *VariableStore, log *ActionLog) *Evaluator {
	return &Evaluator{vars: vars, log: log}
}

// environment builds the namespace a snippet evaluates against: a copy of
// the variables plus the print helper writing into the action log.
func (e *Evaluator) environment() map[string]any {
	env := e.vars.Snapshot()
	env["print"] = func(args ...any) bool {
		parts := make([]string, len(args))
		for i, arg := range args {
			parts[i] = fmt.Sprint(arg)
		}
		e.log.Appendf("[print] %s", strings.Join(parts, " "))
		return true
	}
	return env
}

// EvalCondition evaluates a snippet as a boolean-producing expression.
// Empty snippets are true. Any compile or runtime fault is logged and
// degrades to false.
func (e *Evaluator) EvalCondition(snippet, state string) bool {
	trimmed := strings.TrimSpace(snippet)
	if trimmed == "" {
		return true
	}

	output, err := e.evalExpression(trimmed)
	if err != nil {
		e.log.Appendf("[Eval Error] %v", NewEvaluationError(EvalCondition, trimmed, state, err))
		return false
	}
	return truthy(output)
}

// RunAction executes a snippet as a sequence of statements, delimited by
// semicolons or newlines. A statement of the form "name = expression"
// assigns into the variable store; anything else evaluates as a bare
// expression. The first failing statement is logged and aborts the
// remaining statements of this block only. The returned error reports that
// failure so the engine can honor HaltOnActionError; callers running in the
// default forgiving mode ignore it.
func (e *Evaluator) RunAction(snippet, state string) *EvaluationError {
	statements := splitStatements(snippet)
	if len(statements) == 0 {
		return nil
	}
	if len(statements) > maxActionStatements {
		e.log.Appendf("[Warning] Action in state '%s' exceeds %d statements; extra statements ignored.", state, maxActionStatements)
		statements = statements[:maxActionStatements]
	}

	for _, stmt := range statements {
		if err := e.runStatement(stmt, state); err != nil {
			e.log.Appendf("[Eval Error] %v", err)
			return err
		}
	}
	return nil
}

func (e *Evaluator) runStatement(stmt, state string) *EvaluationError {
	if match := assignmentPattern.FindStringSubmatch(stmt); match != nil {
		name, rhs := match[1], strings.TrimSpace(match[2])
		value, err := e.evalExpression(rhs)
		if err != nil {
			return NewEvaluationError(EvalAction, stmt, state, err)
		}
		e.vars.Set(name, value)
		return nil
	}

	if _, err := e.evalExpression(stmt); err != nil {
		return NewEvaluationError(EvalAction, stmt, state, err)
	}
	return nil
}

func (e *Evaluator) evalExpression(snippet string) (any, error) {
	env := e.environment()
	// Optimization is off: constant folding would eliminate side-effecting
	// subexpressions, and guards must fire their print() calls for every
	// candidate that gets evaluated.
	program, err := expr.Compile(snippet, expr.Env(env), expr.Optimize(false))
	if err != nil {
		return nil, err
	}
	output, err := expr.Run(program, env)
	if err != nil {
		return nil, err
	}
	if err := checkFinite(output); err != nil {
		return nil, err
	}
	return output, nil
}

// checkFinite rejects Inf and NaN results. Division produces floats, so a
// division by zero surfaces here as an evaluation error instead of leaking
// a non-finite value into the variable store or a guard decision.
func checkFinite(value any) error {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	default:
		return nil
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return fmt.Errorf("non-finite result %v (division by zero)", f)
	}
	return nil
}

// splitStatements breaks an action block on semicolons and newlines,
// ignoring delimiters inside string literals
func splitStatements(snippet string) []string {
	var statements []string
	var current strings.Builder
	var quote rune

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for _, r := range snippet {
		switch {
		case quote != 0:
			current.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
			current.WriteRune(r)
		case r == ';' || r == '\n':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return statements
}

// truthy coerces a snippet result to a boolean with dynamic-language
// semantics: zero numbers, empty strings, empty collections and nil are
// false, everything else is true.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case int:
		return v != 0
	case int32:
		return v != 0
	case int64:
		return v != 0
	case uint:
		return v != 0
	case uint32:
		return v != 0
	case uint64:
		return v != 0
	case float32:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

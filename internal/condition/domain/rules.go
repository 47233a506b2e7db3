package domain

// Rule is a single JSON-logic expression.
type Rule map[string]any

// Rules gate a dynamic condition; all of them must pass.
type Rules []Rule

// Facts is the data a rule set is evaluated against.
type Facts map[string]any

// RuleEvaluator decides whether a rule set holds for the given facts.
type RuleEvaluator interface {
	Evaluate(rules Rules, facts Facts) bool
}

// RuleEvaluatorFunc adapts a function to RuleEvaluator.
type RuleEvaluatorFunc func(rules Rules, facts Facts) bool

func (f RuleEvaluatorFunc) Evaluate(rules Rules, facts Facts) bool {
	return f(rules, facts)
}

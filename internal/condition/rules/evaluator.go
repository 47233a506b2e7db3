package rules

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/diegoholiveira/jsonlogic/v3"
	conditiondomain "github.com/smallbiznis/cartsync/internal/condition/domain"
	"go.uber.org/zap"
)

// Evaluator runs condition rules as JSON-logic expressions. A rule set holds
// when every rule yields a truthy result; evaluation failures count as false.
type Evaluator struct {
	log *zap.Logger
}

func NewEvaluator(log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{log: log.Named("condition.rules")}
}

var _ conditiondomain.RuleEvaluator = (*Evaluator)(nil)

func (e *Evaluator) Evaluate(rules conditiondomain.Rules, facts conditiondomain.Facts) bool {
	if len(rules) == 0 {
		return false
	}

	data, err := json.Marshal(facts)
	if err != nil {
		e.log.Warn("marshal rule facts", zap.Error(err))
		return false
	}

	for i, rule := range rules {
		ok, err := apply(rule, data)
		if err != nil {
			e.log.Warn("rule evaluation failed", zap.Int("rule_index", i), zap.Error(err))
			return false
		}
		if !ok {
			return false
		}
	}
	return true
}

// Validate rejects rules that are not well-formed JSON-logic.
func (e *Evaluator) Validate(rules conditiondomain.Rules) error {
	for i, rule := range rules {
		raw, err := json.Marshal(rule)
		if err != nil {
			return fmt.Errorf("%w: rule %d: %v", conditiondomain.ErrInvalidRule, i, err)
		}
		if len(rule) == 0 || !jsonlogic.IsValid(bytes.NewReader(raw)) {
			return fmt.Errorf("%w: rule %d is not a JSON-logic expression", conditiondomain.ErrInvalidRule, i)
		}
	}
	return nil
}

func apply(rule conditiondomain.Rule, data []byte) (bool, error) {
	raw, err := json.Marshal(rule)
	if err != nil {
		return false, err
	}

	var out bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(raw), bytes.NewReader(data), &out); err != nil {
		return false, err
	}
	if out.Len() == 0 {
		return false, nil
	}

	var result any
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		return false, err
	}
	return truthy(result), nil
}

// truthy follows JSON-logic: false, 0, "", [] and null are falsy.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	default:
		return true
	}
}

package procurement

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProcessTypeRequisition identifies requisition approval rules among the
// externally configured rule set.
const ProcessTypeRequisition = "PURCHASE_REQUISITION"

// ConditionOperator is a comparison operator in a rule condition
type ConditionOperator string

const (
	OperatorGreaterThan        ConditionOperator = ">"
	OperatorGreaterThanOrEqual ConditionOperator = ">="
	OperatorLessThan           ConditionOperator = "<"
	OperatorLessThanOrEqual    ConditionOperator = "<="
	OperatorEqual              ConditionOperator = "=="
)

// conditionFields maps condition field names to requisition attribute readers.
// Conditions referencing unknown fields fail to parse and never match.
var conditionFields = map[string]func(*Requisition) decimal.Decimal{
	"totalAmount": func(r *Requisition) decimal.Decimal { return r.TotalAmount },
}

// Condition is a typed comparison over a named requisition attribute.
// It is parsed once when rule configuration is loaded, so malformed
// condition text is caught before evaluation time.
type Condition struct {
	Field     string
	Operator  ConditionOperator
	Threshold decimal.Decimal
}

// ParseCondition parses condition text such as "totalAmount > 1000" into a
// typed Condition. Returns an error for anything it cannot parse.
func ParseCondition(text string) (*Condition, error) {
	tokens := strings.Fields(strings.TrimSpace(text))
	if len(tokens) != 3 {
		return nil, fmt.Errorf("condition %q: expected <field> <operator> <value>", text)
	}

	field := tokens[0]
	if _, ok := conditionFields[field]; !ok {
		return nil, fmt.Errorf("condition %q: unknown field %q", text, field)
	}

	op := ConditionOperator(tokens[1])
	switch op {
	case OperatorGreaterThan, OperatorGreaterThanOrEqual, OperatorLessThan, OperatorLessThanOrEqual, OperatorEqual:
	default:
		return nil, fmt.Errorf("condition %q: unknown operator %q", text, tokens[1])
	}

	threshold, err := decimal.NewFromString(tokens[2])
	if err != nil {
		return nil, fmt.Errorf("condition %q: invalid threshold: %w", text, err)
	}

	return &Condition{
		Field:     field,
		Operator:  op,
		Threshold: threshold,
	}, nil
}

// Evaluate compares the requisition attribute against the threshold
func (c *Condition) Evaluate(r *Requisition) bool {
	read, ok := conditionFields[c.Field]
	if !ok {
		return false
	}
	value := read(r)

	switch c.Operator {
	case OperatorGreaterThan:
		return value.GreaterThan(c.Threshold)
	case OperatorGreaterThanOrEqual:
		return value.GreaterThanOrEqual(c.Threshold)
	case OperatorLessThan:
		return value.LessThan(c.Threshold)
	case OperatorLessThanOrEqual:
		return value.LessThanOrEqual(c.Threshold)
	case OperatorEqual:
		return value.Equal(c.Threshold)
	}
	return false
}

// ApproverDefinition is one approver slot within an approval rule
type ApproverDefinition struct {
	ApproverID uuid.UUID
	Level      int
	Required   bool
}

// ApprovalRule is an externally configured rule deciding which approval
// records a requisition gets. The condition is nil when the configured text
// could not be parsed; such rules never apply (fail-closed), so malformed
// configuration cannot block requisition creation.
type ApprovalRule struct {
	ID           uuid.UUID
	ProcessType  string
	RawCondition string
	Condition    *Condition
	Approvers    []ApproverDefinition
}

// NewApprovalRule builds a rule from configured condition text. A parse
// failure is reported but still yields a usable rule with a nil condition.
func NewApprovalRule(id uuid.UUID, processType, conditionText string, approvers []ApproverDefinition) (*ApprovalRule, error) {
	rule := &ApprovalRule{
		ID:           id,
		ProcessType:  processType,
		RawCondition: conditionText,
		Approvers:    approvers,
	}

	if strings.TrimSpace(conditionText) == "" {
		// No condition means the rule applies unconditionally.
		return rule, nil
	}

	cond, err := ParseCondition(conditionText)
	if err != nil {
		return rule, err
	}
	rule.Condition = cond
	return rule, nil
}

// Matches reports whether this rule applies to the requisition
func (ar *ApprovalRule) Matches(r *Requisition) bool {
	if ar.ProcessType != ProcessTypeRequisition {
		return false
	}
	if ar.RawCondition != "" && ar.Condition == nil {
		// Unparsable condition: fail closed.
		return false
	}
	if ar.Condition == nil {
		return true
	}
	return ar.Condition.Evaluate(r)
}

// MaterializeApprovalRecords produces one pending approval record per
// (matching rule, approver definition) pair. Multiple rules contribute
// independently; no deduplication across rules is performed.
func MaterializeApprovalRecords(r *Requisition, rules []*ApprovalRule) ([]ApprovalRecord, error) {
	records := make([]ApprovalRecord, 0)
	for _, rule := range rules {
		if !rule.Matches(r) {
			continue
		}
		for _, def := range rule.Approvers {
			record, err := NewApprovalRecord(r.ID, def.ApproverID, def.Level, def.Required)
			if err != nil {
				return nil, err
			}
			records = append(records, *record)
		}
	}
	return records, nil
}

package motive

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownOperator is returned for a comparison operator outside {=, <, >, <=, >=}.
var ErrUnknownOperator = errors.New("unknown comparison operator")

// Op is a comparison operator used by motive requirements.
type Op string

const (
	OpEqual        Op = "="
	OpLess         Op = "<"
	OpGreater      Op = ">"
	OpLessEqual    Op = "<="
	OpGreaterEqual Op = ">="
)

// ParseOp normalizes the spellings found in world files. Unrecognized input
// is returned verbatim so that evaluation can report it.
func ParseOp(s string) Op {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "=", "==", "EQUALS":
		return OpEqual
	case "<", "LESS":
		return OpLess
	case ">", "GREATER":
		return OpGreater
	case "<=", "≤", "LESS_EQUALS":
		return OpLessEqual
	case ">=", "≥", "GREATER_EQUALS":
		return OpGreaterEqual
	}
	return Op(s)
}

// Valid reports whether op is one of the known operators.
func (op Op) Valid() bool {
	switch op {
	case OpEqual, OpLess, OpGreater, OpLessEqual, OpGreaterEqual:
		return true
	}
	return false
}

// Compare evaluates value <op> threshold.
func Compare(op Op, value, threshold float64) (bool, error) {
	switch op {
	case OpEqual:
		return value == threshold, nil
	case OpLess:
		return value < threshold, nil
	case OpGreater:
		return value > threshold, nil
	case OpLessEqual:
		return value <= threshold, nil
	case OpGreaterEqual:
		return value >= threshold, nil
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownOperator, string(op))
}

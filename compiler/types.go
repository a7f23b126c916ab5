package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// DataType is the value type of a PLEXIL expression or variable.
type DataType int

const (
	// TypeUnknown means not yet determined. Lookups start out Unknown and
	// take whatever type their context assumes.
	TypeUnknown DataType = iota
	// TypeUnresolved marks an expression whose type could not be computed
	// because of an error already reported. Assumptions on it succeed
	// silently so one mistake yields one diagnostic.
	TypeUnresolved
	TypeBoolean
	TypeInteger
	TypeReal
	TypeString
	TypeBooleanArray
	TypeIntegerArray
	TypeRealArray
	TypeStringArray
)

var typeNames = map[DataType]string{
	TypeUnknown:      "Unknown",
	TypeUnresolved:   "Unresolved",
	TypeBoolean:      "Boolean",
	TypeInteger:      "Integer",
	TypeReal:         "Real",
	TypeString:       "String",
	TypeBooleanArray: "Boolean[]",
	TypeIntegerArray: "Integer[]",
	TypeRealArray:    "Real[]",
	TypeStringArray:  "String[]",
}

func (t DataType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("DataType(%d)", int(t))
}

// IsNumeric reports whether t is Integer or Real.
func (t DataType) IsNumeric() bool { return t == TypeInteger || t == TypeReal }

// IsArray reports whether t is one of the array types.
func (t DataType) IsArray() bool { return t >= TypeBooleanArray && t <= TypeStringArray }

// ElementType returns the element type of an array type, or TypeUnresolved.
func (t DataType) ElementType() DataType {
	switch t {
	case TypeBooleanArray:
		return TypeBoolean
	case TypeIntegerArray:
		return TypeInteger
	case TypeRealArray:
		return TypeReal
	case TypeStringArray:
		return TypeString
	}
	return TypeUnresolved
}

// ArrayOf returns the array type whose elements are t.
func ArrayOf(t DataType) DataType {
	switch t {
	case TypeBoolean:
		return TypeBooleanArray
	case TypeInteger:
		return TypeIntegerArray
	case TypeReal:
		return TypeRealArray
	case TypeString:
		return TypeStringArray
	}
	return TypeUnresolved
}

// BaseName returns the scalar type name used in declarations ("Integer"
// for both Integer and Integer[]).
func (t DataType) BaseName() string {
	if t.IsArray() {
		return t.ElementType().String()
	}
	return t.String()
}

// ParseTypeName parses a declaration type such as "Real" or "Integer[10]".
// For scalars size is 0.
func ParseTypeName(s string) (typ DataType, size int, err error) {
	base := s
	if i := strings.IndexByte(s, '['); i >= 0 {
		if !strings.HasSuffix(s, "]") {
			return TypeUnresolved, 0, fmt.Errorf("malformed array type %q", s)
		}
		base = s[:i]
		size, err = strconv.Atoi(s[i+1 : len(s)-1])
		if err != nil || size <= 0 {
			return TypeUnresolved, 0, fmt.Errorf("array size in %q must be a positive integer literal", s)
		}
	}
	switch base {
	case "Boolean":
		typ = TypeBoolean
	case "Integer":
		typ = TypeInteger
	case "Real":
		typ = TypeReal
	case "String":
		typ = TypeString
	default:
		return TypeUnresolved, 0, fmt.Errorf("unknown type %q", base)
	}
	if size > 0 {
		typ = ArrayOf(typ)
	}
	return typ, size, nil
}

// assumeType checks that expr can be used where want is expected. Unknown
// expressions adopt want; Integer widens to Real. Unresolved on either side
// passes silently since the cause was already reported.
func assumeType(expr *Node, want DataType) bool {
	switch have := expr.typ; {
	case have == want:
		return true
	case have == TypeUnresolved || want == TypeUnresolved:
		return true
	case have == TypeUnknown:
		expr.typ = want
		return true
	case have == TypeInteger && want == TypeReal:
		return true
	}
	return false
}

package plan

// Element tags of the intermediate plan format. Child order inside each
// construct is fixed and read positionally.
const (
	TagPlan                 = "PlexilPlan"
	TagNode                 = "Node"
	TagNodeID               = "NodeId"
	TagSequence             = "Sequence"
	TagConcurrence          = "Concurrence"
	TagVariableDeclarations = "VariableDeclarations"
	TagDeclareVariable      = "DeclareVariable"
	TagDeclareArray         = "DeclareArray"
	TagName                 = "Name"
	TagType                 = "Type"
	TagMaxSize              = "MaxSize"
	TagInitialValue         = "InitialValue"
	TagDo                   = "Do"
	TagWhile                = "While"
	TagAction               = "Action"
	TagCondition            = "Condition"
	TagOnCommand            = "OnCommand"
	TagParameters           = "Parameters"
	TagAssignment           = "Assignment"
	TagLookupNow            = "LookupNow"
	TagArguments            = "Arguments"
	TagArrayElement         = "ArrayElement"
	TagIndex                = "Index"
	TagFunctionCall         = "FunctionCall"

	TagBooleanValue = "BooleanValue"
	TagIntegerValue = "IntegerValue"
	TagRealValue    = "RealValue"
	TagStringValue  = "StringValue"

	TagBooleanVariable = "BooleanVariable"
	TagIntegerVariable = "IntegerVariable"
	TagRealVariable    = "RealVariable"
	TagStringVariable  = "StringVariable"
	TagArrayVariable   = "ArrayVariable"

	TagBooleanRHS = "BooleanRHS"
	TagNumericRHS = "NumericRHS"
	TagStringRHS  = "StringRHS"
	TagArrayRHS   = "ArrayRHS"
)

// OperatorTags maps an operator element tag to its source symbol.
var OperatorTags = map[string]string{
	"ADD":       "+",
	"SUB":       "-",
	"MUL":       "*",
	"DIV":       "/",
	"MOD":       "%",
	"CONCAT":    "+",
	"LT":        "<",
	"LE":        "<=",
	"GT":        ">",
	"GE":        ">=",
	"EQNumeric": "==",
	"NENumeric": "!=",
	"EQBoolean": "==",
	"NEBoolean": "!=",
	"EQString":  "==",
	"NEString":  "!=",
	"AND":       "&&",
	"OR":        "||",
	"NOT":       "!",
}

// symbolTags maps a source operator to its element tag where the mapping
// does not depend on operand types.
var symbolTags = map[string]string{
	"+":  "ADD",
	"-":  "SUB",
	"*":  "MUL",
	"/":  "DIV",
	"%":  "MOD",
	"<":  "LT",
	"<=": "LE",
	">":  "GT",
	">=": "GE",
	"&&": "AND",
	"||": "OR",
	"!":  "NOT",
}

// OperatorTag returns the element tag for a source operator. family is the
// operand family ("Numeric", "Boolean", "String") and only matters for
// equality and for "+" on strings.
func OperatorTag(symbol, family string) (string, bool) {
	switch symbol {
	case "==":
		return "EQ" + family, true
	case "!=":
		return "NE" + family, true
	case "+":
		if family == "String" {
			return "CONCAT", true
		}
	}
	tag, ok := symbolTags[symbol]
	return tag, ok
}

// IsValueTag reports whether tag holds a literal value.
func IsValueTag(tag string) bool {
	switch tag {
	case TagBooleanValue, TagIntegerValue, TagRealValue, TagStringValue:
		return true
	}
	return false
}

// IsVariableTag reports whether tag is a variable reference.
func IsVariableTag(tag string) bool {
	switch tag {
	case TagBooleanVariable, TagIntegerVariable, TagRealVariable, TagStringVariable, TagArrayVariable:
		return true
	}
	return false
}

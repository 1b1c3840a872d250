package diagnostic

import "fmt"

type Kind int

const (
	KeyRequired Kind = iota
	KeyNotAllowed
	KeyPattern
	TypeMismatch
	Const
	Enumerate
	IntegerMaximum
	IntegerMinimum
	IntegerExclusiveMaximum
	IntegerExclusiveMinimum
	IntegerMultipleOf
	FloatMaximum
	FloatMinimum
	FloatExclusiveMaximum
	FloatExclusiveMinimum
	FloatMultipleOf
	StringMaxLength
	StringMinLength
	StringFormat
	StringPattern
	ArrayMaxValues
	ArrayMinValues
	ArrayUniqueValues
	TableMaxKeys
	TableMinKeys
	Deprecated
	DeprecatedValue
	StrictAdditionalProperties
	OneOfMultipleMatch
	NotSchema
	ConflictArray
	ConflictTable
	DuplicateKey
	ParseError
	numKinds
)

var codes = [numKinds]string{
	KeyRequired:                "key-required",
	KeyNotAllowed:              "key-not-allowed",
	KeyPattern:                 "key-pattern",
	TypeMismatch:               "type-mismatch",
	Const:                      "const-value",
	Enumerate:                  "enumerate",
	IntegerMaximum:             "integer-maximum",
	IntegerMinimum:             "integer-minimum",
	IntegerExclusiveMaximum:    "integer-exclusive-maximum",
	IntegerExclusiveMinimum:    "integer-exclusive-minimum",
	IntegerMultipleOf:          "integer-multiple-of",
	FloatMaximum:               "float-maximum",
	FloatMinimum:               "float-minimum",
	FloatExclusiveMaximum:      "float-exclusive-maximum",
	FloatExclusiveMinimum:      "float-exclusive-minimum",
	FloatMultipleOf:            "float-multiple-of",
	StringMaxLength:            "string-max-length",
	StringMinLength:            "string-min-length",
	StringFormat:               "string-format",
	StringPattern:              "string-pattern",
	ArrayMaxValues:             "array-max-values",
	ArrayMinValues:             "array-min-values",
	ArrayUniqueValues:          "array-unique-values",
	TableMaxKeys:               "table-max-keys",
	TableMinKeys:               "table-min-keys",
	Deprecated:                 "deprecated",
	DeprecatedValue:            "deprecated-value",
	StrictAdditionalProperties: "strict-additional-properties",
	OneOfMultipleMatch:         "one-of-multiple-match",
	NotSchema:                  "not-schema",
	ConflictArray:              "conflict-array",
	ConflictTable:              "conflict-table",
	DuplicateKey:               "duplicate-key",
	ParseError:                 "parse-error",
}

// Code is the stable rule name of k, used in configuration and comment
// directives.
func (k Kind) Code() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("<unknown kind %d>", int(k))
	}
	return codes[k]
}

func (k Kind) String() string { return k.Code() }

// DefaultLevel is the level of k when no rule overrides it.
func (k Kind) DefaultLevel() Level {
	switch k {
	case Deprecated, DeprecatedValue, StrictAdditionalProperties, OneOfMultipleMatch:
		return LevelWarn
	}
	return LevelError
}

// Structural kinds come from parsing and lowering and cannot be turned off.
func (k Kind) Structural() bool {
	return k >= ConflictArray && k <= ParseError
}

// KindOf returns the kind whose code is code.
func KindOf(code string) (Kind, bool) {
	for i, c := range codes {
		if c == code {
			return Kind(i), true
		}
	}
	return 0, false
}

// Kinds returns all kinds in declaration order.
func Kinds() []Kind {
	res := make([]Kind, numKinds)
	for i := range res {
		res[i] = Kind(i)
	}
	return res
}

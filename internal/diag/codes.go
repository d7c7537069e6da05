package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Decoding the serialized syntax tree (4xxx is reserved for IO).
	IOReadFailed    Code = 4001
	IODecodeFailed  Code = 4002
	IOVersionSkew   Code = 4003
	IOMalformedNode Code = 4004

	// Semantic analysis.
	SemaInfo                 Code = 3000
	SemaInternalAnalysis     Code = 3001
	SemaDuplicateDefinition  Code = 3002
	SemaUndefinedName        Code = 3003
	SemaTypeMismatch         Code = 3004
	SemaArityMismatch        Code = 3005
	SemaUnsupportedOperator  Code = 3006
	SemaNonExhaustiveMatch   Code = 3007
	SemaUseBeforeAssignment  Code = 3008
	SemaUnreachableCode      Code = 3009
	SemaInvalidContext       Code = 3010
	SemaProtocolConformance  Code = 3011
	SemaUnusedVariable       Code = 3012
	SemaUnknownAttribute     Code = 3013
	SemaNotCallable          Code = 3014
	SemaInvalidAnnotation    Code = 3015
	SemaNotIterable          Code = 3016
	SemaNotSubscriptable     Code = 3017
	SemaMissingReturn        Code = 3018
	SemaInvalidNonlocal      Code = 3019
	SemaConditionNotBool     Code = 3020
	SemaInvalidBaseClass     Code = 3021
	SemaUnknownKeywordArg    Code = 3022
	SemaInvalidTargetAssigns Code = 3023
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown error",

	IOReadFailed:    "Cannot read input file",
	IODecodeFailed:  "Cannot decode syntax tree document",
	IOVersionSkew:   "Syntax tree document version is not supported",
	IOMalformedNode: "Malformed node in syntax tree document",

	SemaInfo:                 "Semantic note",
	SemaInternalAnalysis:     "Internal analysis error",
	SemaDuplicateDefinition:  "Duplicate definition",
	SemaUndefinedName:        "Undefined name",
	SemaTypeMismatch:         "Type mismatch",
	SemaArityMismatch:        "Wrong number of arguments",
	SemaUnsupportedOperator:  "Unsupported operator for operand types",
	SemaNonExhaustiveMatch:   "Match statement is not exhaustive",
	SemaUseBeforeAssignment:  "Variable may be used before assignment",
	SemaUnreachableCode:      "Unreachable code",
	SemaInvalidContext:       "Statement used outside its valid context",
	SemaProtocolConformance:  "Class does not conform to protocol",
	SemaUnusedVariable:       "Unused variable",
	SemaUnknownAttribute:     "Unknown attribute",
	SemaNotCallable:          "Expression is not callable",
	SemaInvalidAnnotation:    "Invalid type annotation",
	SemaNotIterable:          "Expression is not iterable",
	SemaNotSubscriptable:     "Expression is not subscriptable",
	SemaMissingReturn:        "Missing return in function",
	SemaInvalidNonlocal:      "No binding for nonlocal declaration",
	SemaConditionNotBool:     "Condition must be bool",
	SemaInvalidBaseClass:     "Invalid base class",
	SemaUnknownKeywordArg:    "Unknown keyword argument",
	SemaInvalidTargetAssigns: "Invalid assignment target",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

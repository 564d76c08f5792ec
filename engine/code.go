package engine

import "strconv"

// Code is the integer status returned by every engine primitive.
// The zero value reports success.
type Code uint32

// List of codes.
const (
	OK                               Code = 0
	CodeNotImplemented               Code = 1
	CodeUnexpected                   Code = 2
	CodeHashTable                    Code = 3
	CodeOutOfBounds                  Code = 4
	CodeNullPointerRef               Code = 5
	CodeMemAlloc                     Code = 6
	CodeInvalidHeader                Code = 7
	CodeInconsistentProcState        Code = 8
	CodeInvalidEXIInput              Code = 9
	CodeBufferEndReached             Code = 10
	CodeParsingComplete              Code = 11
	CodeTooManyPrefixesPerURI        Code = 12
	CodeInvalidEXIPConfig            Code = 13
	CodeNoPrefixesPreservedXMLSchema Code = 14
	CodeInvalidStringOperation       Code = 15
	CodeHeaderOptionsMismatch        Code = 16
	CodeHandlerStop                  Code = 17
)

var codeMessages = map[Code]string{
	OK:                               "ok",
	CodeNotImplemented:               "unimplemented in the EXI engine",
	CodeUnexpected:                   "unexpected error within the EXI engine",
	CodeHashTable:                    "engine internal hash table error",
	CodeOutOfBounds:                  "array out of bounds",
	CodeNullPointerRef:               "attempted null reference",
	CodeMemAlloc:                     "engine internal memory allocation failure",
	CodeInvalidHeader:                "invalid EXI header",
	CodeInconsistentProcState:        "engine state inconsistent with stream events",
	CodeInvalidEXIInput:              "received invalid EXI value or type encoding",
	CodeBufferEndReached:             "the end of the available buffer was reached",
	CodeParsingComplete:              "parsing complete",
	CodeTooManyPrefixesPerURI:        "too many prefixes per URI",
	CodeInvalidEXIPConfig:            "an invalid configuration was supplied to the engine",
	CodeNoPrefixesPreservedXMLSchema: "XML Schema must be EXI encoded with the prefixes preserved",
	CodeInvalidStringOperation:       "invalid string operation",
	CodeHeaderOptionsMismatch:        "mismatch in the supplied header options",
	CodeHandlerStop:                  "handler requested stop",
}

// NormalizeCode converts a raw status into a Code.
// Unknown statuses are reported as CodeUnexpected.
func NormalizeCode(raw uint32) Code {
	c := Code(raw)
	if _, ok := codeMessages[c]; !ok {
		return CodeUnexpected
	}
	return c
}

// Error implements the error interface so that codes can be matched
// with errors.Is.
func (c Code) Error() string {
	return c.String()
}

func (c Code) String() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return "unknown engine code " + strconv.FormatUint(uint64(c), 10)
}

package protoform

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType   = "invalid_type"
	CodeInvalidFormat = "invalid_format"
	CodeRequired      = "required"
	CodeUnknownField  = "unknown_field"
	CodeKeyNotScalar  = "key_not_scalar"
	CodeDuplicateTag  = "duplicate_tag"
	CodeCodecFailure  = "codec_failure"
	CodeParseError    = "parse_error"
	// Inheritance resolution (the prototype package reuses these codes)
	CodeInheritanceCycle = "inheritance_cycle"
	CodeMissingParent    = "missing_parent"
	CodeDuplicateID      = "duplicate_id"
)

// defaultMessage maps an issue code to its default English message.
// Codes without an entry fall back to the code itself.
func defaultMessage(code string) string {
	switch code {
	case CodeInvalidType:
		return "invalid type"
	case CodeInvalidFormat:
		return "invalid format"
	case CodeRequired:
		return "required field missing"
	case CodeUnknownField:
		return "unknown field"
	case CodeKeyNotScalar:
		return "mapping key is not a scalar"
	case CodeDuplicateTag:
		return "duplicate tag"
	case CodeCodecFailure:
		return "codec failure"
	case CodeParseError:
		return "parse error"
	case CodeInheritanceCycle:
		return "inheritance cycle"
	case CodeMissingParent:
		return "parent prototype not registered"
	case CodeDuplicateID:
		return "duplicate prototype id"
	}
	return code
}

// Issue represents a single validation or marshaling finding.
type Issue struct {
	Path    string // Document path (for example: /health or /drops/2).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, expected kinds, etc.
	Cause   error  // Optional: underlying error.
}

// NewIssue builds an Issue with the default message for code.
func NewIssue(path, code string) Issue {
	return Issue{Path: path, Code: code, Message: defaultMessage(code)}
}

// Issues is a collection of findings that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// issuesFromErr converts an error into Issues rebased under path, wrapping
// non-Issues errors with CodeCodecFailure.
func issuesFromErr(path string, err error) Issues {
	if err == nil {
		return nil
	}
	if i2, ok := AsIssues(err); ok {
		return rebaseIssues(path, i2)
	}
	return Issues{{Path: path, Code: CodeCodecFailure, Message: err.Error(), Cause: err}}
}

// rebaseIssues prefixes child issue paths with base so findings from nested
// decodes point at the right spot in the outer document.
func rebaseIssues(base string, iss Issues) Issues {
	if base == "" || base == "/" {
		return iss
	}
	out := make(Issues, 0, len(iss))
	for _, it := range iss {
		p := it.Path
		switch {
		case p == "" || p == "/":
			p = base
		case p[0] == '/':
			p = base + p
		default:
			p = base + "/" + p
		}
		it.Path = p
		out = append(out, it)
	}
	return out
}

// SchemaConfigError reports a malformed field declaration discovered while
// building a schema. It is fatal for the affected type and is returned at
// build time, never deferred to marshaling.
type SchemaConfigError struct {
	Type   reflect.Type
	Field  string // Go field name
	Reason string
}

func (e *SchemaConfigError) Error() string {
	return fmt.Sprintf("protoform: schema for %s: field %s: %s", e.Type, e.Field, e.Reason)
}

// ErrNotStruct indicates a schema was requested for a non-struct type.
var ErrNotStruct = errors.New("protoform: schema target must be a struct type")

// ErrNilTarget indicates Populate or Copy received a nil or non-pointer target.
var ErrNilTarget = errors.New("protoform: target must be a non-nil pointer")

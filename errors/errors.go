package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseCompile   Phase = "compile"   // schema validation and plan compilation
	PhaseLookup    Phase = "lookup"    // slot/offset resolution
	PhaseEncode    Phase = "encode"    // value to wire bytes
	PhaseDecode    Phase = "decode"    // wire bytes to value
	PhaseOperation Phase = "operation" // variant switch and clear
	PhaseStorage   Phase = "storage"   // slot store access
	PhaseParse     Phase = "parse"     // schema documents and type strings
	PhaseConfig    Phase = "config"    // configuration files
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidSchema        Kind = "invalid_schema"
	KindStrategyUnsupported  Kind = "strategy_unsupported_for_storage_class"
	KindUnknownField         Kind = "unknown_field"
	KindVariantMismatch      Kind = "variant_mismatch"
	KindSelectorOutOfRange   Kind = "selector_out_of_range"
	KindTruncatedBuffer      Kind = "truncated_buffer"
	KindMalformedTailPointer Kind = "malformed_tail_pointer"
	KindNotCurrentVariant    Kind = "not_current_variant"
	KindTypeMismatch         Kind = "type_mismatch"
	KindOverflow             Kind = "overflow"
	KindInvalidData          Kind = "invalid_data"
	KindUnsupported          Kind = "unsupported"
	KindOutOfBounds          Kind = "out_of_bounds"
	KindInvalidInput         Kind = "invalid_input"
	KindNotFound             Kind = "not_found"
	KindClosed               Kind = "closed"
)

// Sentinels for errors.Is. Matching compares Phase and Kind only.
var (
	ErrInvalidSchema                      = &Error{Phase: PhaseCompile, Kind: KindInvalidSchema}
	ErrStrategyUnsupportedForStorageClass = &Error{Phase: PhaseCompile, Kind: KindStrategyUnsupported}
	ErrUnknownField                       = &Error{Phase: PhaseLookup, Kind: KindUnknownField}
	ErrVariantMismatch                    = &Error{Phase: PhaseLookup, Kind: KindVariantMismatch}
	ErrSelectorOutOfRange                 = &Error{Phase: PhaseDecode, Kind: KindSelectorOutOfRange}
	ErrTruncatedBuffer                    = &Error{Phase: PhaseDecode, Kind: KindTruncatedBuffer}
	ErrMalformedTailPointer               = &Error{Phase: PhaseDecode, Kind: KindMalformedTailPointer}
	ErrNotCurrentVariant                  = &Error{Phase: PhaseOperation, Kind: KindNotCurrentVariant}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value      any
	Cause      error
	Phase      Phase
	Kind       Kind
	GoType     string
	SchemaType string
	Detail     string
	Path       []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.SchemaType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.SchemaType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", schema type ")
			b.WriteString(e.SchemaType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("schema type ")
			b.WriteString(e.SchemaType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.SchemaType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// SchemaType sets the schema type name
func (b *Builder) SchemaType(t string) *Builder {
	b.err.SchemaType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the layout error taxonomy

// InvalidSchema creates a schema validation error
func InvalidSchema(path []string, format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindInvalidSchema,
		Path:   path,
		Detail: fmt.Sprintf(format, args...),
	}
}

// StrategyUnsupported creates an error for a strategy that cannot target a storage class
func StrategyUnsupported(strategy, class string) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindStrategyUnsupported,
		Detail: fmt.Sprintf("strategy %s cannot target %s storage", strategy, class),
	}
}

// UnknownField creates an unknown field error
func UnknownField(path []string, fieldName string) *Error {
	return &Error{
		Phase:  PhaseLookup,
		Kind:   KindUnknownField,
		Path:   path,
		Detail: fmt.Sprintf("unknown field %q", fieldName),
	}
}

// VariantMismatch creates an error for access to a variant that is not selected
func VariantMismatch(path []string, requested, selected int) *Error {
	return &Error{
		Phase:  PhaseLookup,
		Kind:   KindVariantMismatch,
		Path:   path,
		Detail: fmt.Sprintf("variant %d requested, variant %d selected", requested, selected),
		Value:  requested,
	}
}

// StaleAccessor creates a variant mismatch error for an accessor issued
// before the union switched variants.
func StaleAccessor(path []string, issued, current uint64) *Error {
	return &Error{
		Phase:  PhaseLookup,
		Kind:   KindVariantMismatch,
		Path:   path,
		Detail: fmt.Sprintf("accessor issued at generation %d, union is at generation %d", issued, current),
	}
}

// SelectorOutOfRange creates an invalid selector error
func SelectorOutOfRange(path []string, selector any, numVariants int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindSelectorOutOfRange,
		Path:   path,
		Detail: fmt.Sprintf("selector %v out of range (%d variants)", selector, numVariants),
		Value:  selector,
	}
}

// TruncatedBuffer creates a short buffer error
func TruncatedBuffer(path []string, need, have int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindTruncatedBuffer,
		Path:   path,
		Detail: fmt.Sprintf("need %d bytes, have %d", need, have),
	}
}

// MalformedTailPointer creates an error for a tail pointer outside the buffer
func MalformedTailPointer(path []string, pointer any, headEnd, length int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindMalformedTailPointer,
		Path:   path,
		Detail: fmt.Sprintf("pointer %v outside tail [%d, %d)", pointer, headEnd, length),
		Value:  pointer,
	}
}

// NotCurrentVariant creates an error for clearing a variant that is not selected
func NotCurrentVariant(requested, selected int) *Error {
	return &Error{
		Phase:  PhaseOperation,
		Kind:   KindNotCurrentVariant,
		Detail: fmt.Sprintf("variant %d is not selected (selected %d)", requested, selected),
		Value:  requested,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, schemaType string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindTypeMismatch,
		Path:       path,
		GoType:     goType,
		SchemaType: schemaType,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindOverflow,
		Path:       path,
		SchemaType: targetType,
		Detail:     fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:      value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %v out of bounds (length %v)", index, length),
		Value:  index,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Storage wraps a slot store failure
func Storage(op string, cause error) *Error {
	return &Error{
		Phase:  PhaseStorage,
		Kind:   KindInvalidData,
		Detail: op,
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// WithPath returns a copy of err with prefix prepended to its path. Errors
// that are not *Error are returned unchanged.
func WithPath(err error, prefix ...string) error {
	e, ok := err.(*Error)
	if !ok || len(prefix) == 0 {
		return err
	}
	cp := *e
	cp.Path = append(append(make([]string, 0, len(prefix)+len(e.Path)), prefix...), e.Path...)
	return &cp
}

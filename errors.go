package relmap

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the error kinds of the package. Every typed error
// below reports one of them through errors.Is.
var (
	// ErrInvalidArgument is the kind of errors caused by an expression that
	// does not fit the entity metadata it is compiled against.
	ErrInvalidArgument = errors.New("relmap: invalid argument")

	// ErrLogic is the kind of errors caused by a query that is well-formed
	// but has no well-defined meaning, e.g. ordering by a to-many relationship.
	ErrLogic = errors.New("relmap: logic error")

	// ErrInvariant is returned when metadata or mapper output violates an
	// internal invariant. It is not expected under correct metadata.
	ErrInvariant = errors.New("relmap: invariant violation")

	// ErrNotFound is returned when a requested entity type or mapper does not exist.
	ErrNotFound = errors.New("relmap: not found")
)

// RelationshipNotFoundError is returned when a path segment names a property
// that is not a relationship.
type RelationshipNotFoundError struct {
	Entity   string // Entity type holding the property
	Property string // Property name used as a path segment
}

// Error returns the error string.
func (e *RelationshipNotFoundError) Error() string {
	return fmt.Sprintf("relmap: property %s.%s is not a relationship", e.Entity, e.Property)
}

// Is reports whether the target error matches ErrInvalidArgument.
func (e *RelationshipNotFoundError) Is(err error) bool {
	return err == ErrInvalidArgument
}

// NewRelationshipNotFoundError returns a new RelationshipNotFoundError.
func NewRelationshipNotFoundError(entity, property string) *RelationshipNotFoundError {
	return &RelationshipNotFoundError{Entity: entity, Property: property}
}

// IsRelationshipNotFound returns true if the error is a RelationshipNotFoundError.
func IsRelationshipNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *RelationshipNotFoundError
	return errors.As(err, &e)
}

// PropertyNotFoundError is returned when a property does not exist on the
// entity metadata it was looked up on.
type PropertyNotFoundError struct {
	Entity   string
	Property string
}

// Error returns the error string.
func (e *PropertyNotFoundError) Error() string {
	return fmt.Sprintf("relmap: undefined property %s.%s", e.Entity, e.Property)
}

// Is reports whether the target error matches ErrInvalidArgument.
func (e *PropertyNotFoundError) Is(err error) bool {
	return err == ErrInvalidArgument
}

// NewPropertyNotFoundError returns a new PropertyNotFoundError.
func NewPropertyNotFoundError(entity, property string) *PropertyNotFoundError {
	return &PropertyNotFoundError{Entity: entity, Property: property}
}

// IsPropertyNotFound returns true if the error is a PropertyNotFoundError.
func IsPropertyNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *PropertyNotFoundError
	return errors.As(err, &e)
}

// InvalidExpressionError is returned when a path expression cannot be parsed.
type InvalidExpressionError struct {
	Expression string
	Reason     string
}

// Error returns the error string.
func (e *InvalidExpressionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("relmap: invalid expression %q: %s", e.Expression, e.Reason)
	}
	return fmt.Sprintf("relmap: invalid expression %q", e.Expression)
}

// Is reports whether the target error matches ErrInvalidArgument.
func (e *InvalidExpressionError) Is(err error) bool {
	return err == ErrInvalidArgument
}

// NewInvalidExpressionError returns a new InvalidExpressionError.
func NewInvalidExpressionError(expr, reason string) *InvalidExpressionError {
	return &InvalidExpressionError{Expression: expr, Reason: reason}
}

// AmbiguousOrderingError is returned when an ORDER BY expression traverses
// a one-to-many or many-to-many relationship.
type AmbiguousOrderingError struct {
	Expression string
}

// Error returns the error string.
func (e *AmbiguousOrderingError) Error() string {
	return fmt.Sprintf("relmap: cannot order by %q expression, includes has many relationship", e.Expression)
}

// Is reports whether the target error matches ErrLogic.
func (e *AmbiguousOrderingError) Is(err error) bool {
	return err == ErrLogic
}

// NewAmbiguousOrderingError returns a new AmbiguousOrderingError.
func NewAmbiguousOrderingError(expr string) *AmbiguousOrderingError {
	return &AmbiguousOrderingError{Expression: expr}
}

// IsAmbiguousOrdering returns true if the error is an AmbiguousOrderingError.
func IsAmbiguousOrdering(err error) bool {
	if err == nil {
		return false
	}
	var e *AmbiguousOrderingError
	return errors.As(err, &e)
}

// InvariantError reports malformed metadata or mapper output, e.g.
// many-to-many join parameters without columns.
type InvariantError struct {
	msg string
}

// Error returns the error string.
func (e *InvariantError) Error() string {
	return "relmap: invariant violation: " + e.msg
}

// Is reports whether the target error matches ErrInvariant.
func (e *InvariantError) Is(err error) bool {
	return err == ErrInvariant
}

// NewInvariantError returns a new InvariantError with a formatted message.
func NewInvariantError(format string, args ...any) *InvariantError {
	return &InvariantError{msg: fmt.Sprintf(format, args...)}
}

// IsInvariant returns true if the error is an InvariantError.
func IsInvariant(err error) bool {
	if err == nil {
		return false
	}
	var e *InvariantError
	return errors.As(err, &e)
}

// NotFoundError represents an error when an entity type or mapper is not registered.
type NotFoundError struct {
	label string
	name  string
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("relmap: %s %q not found", e.label, e.name)
}

// Is reports whether the target error matches ErrNotFound.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns what was looked up, e.g. "entity" or "mapper".
func (e *NotFoundError) Label() string {
	return e.label
}

// Name returns the name that was looked up.
func (e *NotFoundError) Name() string {
	return e.name
}

// NewNotFoundError returns a new NotFoundError.
func NewNotFoundError(label, name string) *NotFoundError {
	return &NotFoundError{label: label, name: name}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// NotLoadedError represents an error when reading a relationship collection
// whose backing snapshot was never fetched.
type NotLoadedError struct {
	relationship string
}

// Error returns the error string.
func (e *NotLoadedError) Error() string {
	return fmt.Sprintf("relmap: relationship %q was not loaded", e.relationship)
}

// NewNotLoadedError returns a new NotLoadedError for the given relationship.
func NewNotLoadedError(relationship string) *NotLoadedError {
	return &NotLoadedError{relationship: relationship}
}

// IsNotLoaded returns true if the error is a NotLoadedError.
func IsNotLoaded(err error) bool {
	if err == nil {
		return false
	}
	var e *NotLoadedError
	return errors.As(err, &e)
}

// QueryError wraps a storage error with the entity and operation it occurred in.
type QueryError struct {
	Entity string // Entity type being queried
	Op     string // Operation (e.g., "fetch", "load")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("relmap: querying %s (%s): %v", e.Entity, e.Op, e.Err)
	}
	return fmt.Sprintf("relmap: querying %s: %v", e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(entity, op string, err error) *QueryError {
	return &QueryError{Entity: entity, Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "relmap: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("relmap: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors, so errors.Is and errors.As see all of them.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}

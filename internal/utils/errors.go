package utils

import (
	"errors"
	"fmt"
)

// Error sentinels for each failure class of a migration run
var (
	// ErrConfig is returned when the run configuration is missing or invalid
	ErrConfig = errors.New("configuration error")

	// ErrConnection is returned when a store cannot be reached or authenticated
	ErrConnection = errors.New("connection error")

	// ErrSchema is returned when the target schema cannot be established
	ErrSchema = errors.New("schema error")

	// ErrQuery is returned when an entity's source rows cannot be read
	ErrQuery = errors.New("query error")

	// ErrSchemaMismatch is returned when a source record cannot be transformed
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrConstraintViolation is returned when a target constraint rejects a record
	ErrConstraintViolation = errors.New("constraint violation")
)

// Error kinds as they appear in migration reports
const (
	KindConfig              = "config"
	KindConnection          = "connection"
	KindSchema              = "schema"
	KindQuery               = "query"
	KindSchemaMismatch      = "schema_mismatch"
	KindConstraintViolation = "constraint_violation"
	KindWrite               = "write"
)

// ConfigError represents an invalid or missing configuration value
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration error on '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

// ConnectionError represents a store that could not be opened or reached
type ConnectionError struct {
	Store string
	Cause error
}

func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot connect to %s: %v", e.Store, e.Cause)
	}
	return fmt.Sprintf("cannot connect to %s", e.Store)
}

func (e *ConnectionError) Unwrap() []error {
	return []error{ErrConnection, e.Cause}
}

// SchemaError represents a target schema that could not be applied
type SchemaError struct {
	Step  string
	Cause error
}

func (e *SchemaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("schema error during %s: %v", e.Step, e.Cause)
	}
	return fmt.Sprintf("schema error during %s", e.Step)
}

func (e *SchemaError) Unwrap() []error {
	return []error{ErrSchema, e.Cause}
}

// QueryError represents a failure reading an entity's source table
type QueryError struct {
	Entity string
	Table  string
	Cause  error
}

func (e *QueryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("query error reading %s from table '%s': %v", e.Entity, e.Table, e.Cause)
	}
	return fmt.Sprintf("query error reading %s from table '%s'", e.Entity, e.Table)
}

func (e *QueryError) Unwrap() []error {
	return []error{ErrQuery, e.Cause}
}

// SchemaMismatchError represents a source field that cannot be aligned to the target column
type SchemaMismatchError struct {
	Entity  string
	Field   string
	Message string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch on %s field '%s': %s", e.Entity, e.Field, e.Message)
}

func (e *SchemaMismatchError) Unwrap() error {
	return ErrSchemaMismatch
}

// Constraint names reported by ConstraintViolationError
const (
	ConstraintForeignKey = "foreign_key"
	ConstraintUnique     = "unique"
)

// ConstraintViolationError represents a record rejected by a target constraint
type ConstraintViolationError struct {
	Entity     string
	RecordID   string
	Constraint string
	Cause      error
}

func (e *ConstraintViolationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s constraint violated by %s '%s': %v", e.Constraint, e.Entity, e.RecordID, e.Cause)
	}
	return fmt.Sprintf("%s constraint violated by %s '%s'", e.Constraint, e.Entity, e.RecordID)
}

func (e *ConstraintViolationError) Unwrap() []error {
	return []error{ErrConstraintViolation, e.Cause}
}

// Error wrapping functions

// WrapConfigError wraps a message as a configuration error
func WrapConfigError(field, message string) error {
	return &ConfigError{Field: field, Message: message}
}

// WrapConnectionError wraps an error as a connection error for the named store
func WrapConnectionError(store string, cause error) error {
	return &ConnectionError{Store: store, Cause: cause}
}

// WrapSchemaError wraps an error as a schema error
func WrapSchemaError(step string, cause error) error {
	return &SchemaError{Step: step, Cause: cause}
}

// WrapQueryError wraps an error as a query error
func WrapQueryError(entity, table string, cause error) error {
	return &QueryError{Entity: entity, Table: table, Cause: cause}
}

// WrapSchemaMismatchError creates a schema mismatch error
func WrapSchemaMismatchError(entity, field, message string) error {
	return &SchemaMismatchError{Entity: entity, Field: field, Message: message}
}

// WrapConstraintViolationError wraps an error as a constraint violation
func WrapConstraintViolationError(entity, recordID, constraint string, cause error) error {
	return &ConstraintViolationError{Entity: entity, RecordID: recordID, Constraint: constraint, Cause: cause}
}

// Error checking functions

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig)
}

// IsConnectionError checks if an error is a connection error
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsSchemaError checks if an error is a schema error
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

// IsQueryError checks if an error is a query error
func IsQueryError(err error) bool {
	return errors.Is(err, ErrQuery)
}

// IsSchemaMismatchError checks if an error is a schema mismatch error
func IsSchemaMismatchError(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}

// IsConstraintViolationError checks if an error is a constraint violation
func IsConstraintViolationError(err error) bool {
	return errors.Is(err, ErrConstraintViolation)
}

// IsFatal reports whether an error must abort the whole run
func IsFatal(err error) bool {
	return IsConfigError(err) || IsConnectionError(err) || IsSchemaError(err)
}

// ErrorKind maps an error to the kind string used in reports
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsConfigError(err):
		return KindConfig
	case IsConnectionError(err):
		return KindConnection
	case IsSchemaError(err):
		return KindSchema
	case IsQueryError(err):
		return KindQuery
	case IsSchemaMismatchError(err):
		return KindSchemaMismatch
	case IsConstraintViolationError(err):
		return KindConstraintViolation
	default:
		return KindWrite
	}
}

// RequiredFieldError creates a schema mismatch error for an absent required field
func RequiredFieldError(entity, field string) error {
	return WrapSchemaMismatchError(entity, field, "required field is absent")
}

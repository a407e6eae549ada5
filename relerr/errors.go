// Package relerr defines the error taxonomy shared by relit packages.
package relerr

import (
	"fmt"
	"strings"
)

// ErrorType defines the category of the error.
type ErrorType string

const (
	TypeSyntax ErrorType = "SyntaxError"
	TypeConfig ErrorType = "InvalidConfiguration"
)

// RelitError is the interface for all relit errors.
type RelitError interface {
	error
	Type() ErrorType
}

// BaseError provides common fields for relit errors.
type BaseError struct {
	Msg     string
	ErrType ErrorType
}

func (e *BaseError) Error() string {
	return fmt.Sprintf("[%s] %s", e.ErrType, e.Msg)
}

func (e *BaseError) Type() ErrorType {
	return e.ErrType
}

// SyntaxError is reported while reading type expressions, rule files and
// tree documents. Line is zero for single-line inputs such as a type
// expression.
type SyntaxError struct {
	BaseError
	Line     int
	Column   int
	FilePath string
}

func (e *SyntaxError) Error() string {
	switch {
	case e.FilePath != "" && e.Line > 0:
		return fmt.Sprintf("[%s] %s:%d:%d %s", e.ErrType, e.FilePath, e.Line, e.Column, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("[%s] line %d:%d %s", e.ErrType, e.Line, e.Column, e.Msg)
	case e.Column > 0:
		return fmt.Sprintf("[%s] column %d %s", e.ErrType, e.Column, e.Msg)
	}
	return fmt.Sprintf("[%s] %s", e.ErrType, e.Msg)
}

// ConfigError is raised when a replacer or rule is constructed with an
// invalid combination of arguments. It is never raised during traversal.
type ConfigError struct {
	BaseError
	Param string
}

func (e *ConfigError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("[%s] %s: %s", e.ErrType, e.Param, e.Msg)
	}
	return e.BaseError.Error()
}

// MultiError collects multiple relit errors.
type MultiError struct {
	Errors []error
}

func (m *MultiError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d error(s) occurred:\n", len(m.Errors)))
	for _, err := range m.Errors {
		sb.WriteString(fmt.Sprintf("- %v\n", err))
	}
	return sb.String()
}

func (m *MultiError) Type() ErrorType {
	if len(m.Errors) > 0 {
		if re, ok := m.Errors[0].(RelitError); ok {
			return re.Type()
		}
	}
	return "MultiError"
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// ErrOrNil returns nil when no errors were collected, the single error
// when exactly one was, and the MultiError otherwise.
func (m *MultiError) ErrOrNil() error {
	switch len(m.Errors) {
	case 0:
		return nil
	case 1:
		return m.Errors[0]
	}
	return m
}

// NewSyntaxError creates a new SyntaxError at a line and column.
func NewSyntaxError(line, column int, msg string) *SyntaxError {
	return &SyntaxError{
		BaseError: BaseError{
			Msg:     msg,
			ErrType: TypeSyntax,
		},
		Line:   line,
		Column: column,
	}
}

// NewSyntaxErrorInFile creates a SyntaxError with file path, line, and column position.
func NewSyntaxErrorInFile(filePath string, line, column int, msg string) *SyntaxError {
	err := NewSyntaxError(line, column, msg)
	err.FilePath = filePath
	return err
}

// NewConfigError creates a new ConfigError for the named parameter.
func NewConfigError(param, msg string) *ConfigError {
	return &ConfigError{
		BaseError: BaseError{
			Msg:     msg,
			ErrType: TypeConfig,
		},
		Param: param,
	}
}

// NewConfigErrorf creates a ConfigError with a formatted message.
func NewConfigErrorf(param, format string, args ...any) *ConfigError {
	return NewConfigError(param, fmt.Sprintf(format, args...))
}

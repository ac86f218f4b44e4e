package errors

import (
	"fmt"
)

type Error interface {
	error

	Code() int
	Message() string
	Cause() error
	Details() []Detail
}

// Detail describes a problem with a single field of a request payload.
type Detail struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// Default code defines the code that will be used by default when
// none is given. It is set to 500, Internal Server Error
var DefaultCode = 500

type myError struct {
	code    int
	msg     string
	cause   *myError
	details []Detail
}

func (err *myError) Error() string {
	if err.cause == nil {
		return err.msg
	}

	return fmt.Sprintf("%s: %v", err.msg, err.cause)
}

func (err *myError) Code() int {
	return err.code
}

func (err *myError) Message() string {
	return err.msg
}

func (err *myError) Cause() error {
	if err.cause == nil {
		return nil
	}
	return err.cause
}

func (err *myError) Details() []Detail {
	return err.details
}

type ErrorEnricher func(error) error

func WithCode(code int) func(error) error {
	return func(err error) error {
		switch err := err.(type) {
		case nil:
			return nil
		case *myError:
			err.code = code
			return err
		}

		// default
		return &myError{
			msg:  err.Error(),
			code: code,
		}
	}
}

func WithCause(cause error) func(error) error {
	var myCause *myError
	switch cause := cause.(type) {
	case *myError:
		myCause = cause
	default:
		myCause = &myError{msg: cause.Error(), code: DefaultCode}
	}

	return func(err error) error {
		switch err := err.(type) {
		case nil:
			return nil
		case *myError:
			err.cause = myCause
			return err
		}

		return &myError{
			msg:   err.Error(),
			code:  myCause.code,
			cause: myCause,
		}
	}
}

// WithDetail attaches a field-level problem to the error. Details end up
// in the error body of validation failures.
func WithDetail(field, msg string) func(error) error {
	return func(err error) error {
		switch err := err.(type) {
		case nil:
			return nil
		case *myError:
			err.details = append(err.details, Detail{Field: field, Error: msg})
			return err
		}

		return &myError{
			msg:     err.Error(),
			code:    DefaultCode,
			details: []Detail{{Field: field, Error: msg}},
		}
	}
}

func New(msg string, fs ...ErrorEnricher) error {
	var err error
	err = &myError{
		msg:  msg,
		code: DefaultCode,
	}

	for _, f := range fs {
		err = f(err)
	}

	return err
}

// Code extracts the code carried by err, falling back on DefaultCode
// for foreign errors.
func Code(err error) int {
	if err, ok := err.(Error); ok {
		return err.Code()
	}
	return DefaultCode
}

package errors

import (
	"fmt"
)

type Error interface {
	error

	Code() int
	Message() string
	Cause() error
}

// DefaultCode is used when no code is given. It is set to 500, Internal
// Server Error.
var DefaultCode = 500

type codedError struct {
	code  int
	msg   string
	cause *codedError

	// coded is set once a code was given explicitly. Until then the error
	// takes the code of its cause.
	coded bool

	// origin is the plain error this one was built from, kept for errors.Is
	// and errors.As.
	origin error
}

func (err *codedError) Error() string {
	if err.cause == nil {
		return err.msg
	}

	return fmt.Sprintf("%s: %v", err.msg, err.cause)
}

func (err *codedError) Code() int {
	return err.code
}

func (err *codedError) Message() string {
	return err.msg
}

func (err *codedError) Cause() error {
	if err.cause == nil {
		return nil
	}
	return err.cause
}

func (err *codedError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if err.origin != nil {
		errs = append(errs, err.origin)
	}
	if err.cause != nil {
		errs = append(errs, err.cause)
	}
	return errs
}

type ErrorEnricher func(error) error

func WithCode(code int) ErrorEnricher {
	return func(err error) error {
		switch err := err.(type) {
		case nil:
			return nil
		case *codedError:
			err.code = code
			err.coded = true
			return err
		}

		return &codedError{
			msg:    err.Error(),
			code:   code,
			coded:  true,
			origin: err,
		}
	}
}

// WithCause attaches cause to the error. Unless a code was set explicitly,
// the error inherits the one of the cause.
func WithCause(cause error) ErrorEnricher {
	var c *codedError
	switch cause := cause.(type) {
	case nil:
		return func(err error) error { return err }
	case *codedError:
		c = cause
	default:
		c = &codedError{msg: cause.Error(), code: DefaultCode, origin: cause}
	}

	return func(err error) error {
		switch err := err.(type) {
		case nil:
			return nil
		case *codedError:
			err.cause = c
			if !err.coded {
				err.code = c.code
			}
			return err
		}

		return &codedError{
			msg:    err.Error(),
			code:   c.code,
			cause:  c,
			origin: err,
		}
	}
}

func New(msg string, fs ...ErrorEnricher) error {
	var err error = &codedError{
		msg:  msg,
		code: DefaultCode,
	}

	for _, f := range fs {
		err = f(err)
	}

	return err
}

// Code returns the code carried by err, or DefaultCode.
func Code(err error) int {
	if err, ok := err.(Error); ok {
		return err.Code()
	}
	return DefaultCode
}

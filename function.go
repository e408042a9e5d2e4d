package crosstune

import (
	"github.com/aws/aws-lambda-go/lambda"
)

// sourcedFunction adapts a plain Go function into a Function while
// keeping the original value around. The mock build modes reflect on
// the source signature to build zero-value stand-ins.
type sourcedFunction struct {
	lambda.Handler
	source interface{}
	errs   []error
}

// Source returns the function the handler was built from.
func (f *sourcedFunction) Source() interface{} {
	return f.source
}

// Errors lists the failures the function is documented to return.
// Only populated by NewFunctionWithErrors.
func (f *sourcedFunction) Errors() []error {
	return f.errs
}

// NewFunction adapts any signature the lambda SDK accepts into a
// Function suitable for loading through a Fetcher.
func NewFunction(v interface{}) Function {
	return &sourcedFunction{
		Handler: lambda.NewHandler(v),
		source:  v,
	}
}

// NewFunctionWithErrors additionally documents the error values the
// function can produce. The mock http mode uses the documented errors
// to simulate failures on demand.
func NewFunctionWithErrors(v interface{}, errs ...error) Function {
	return &sourcedFunction{
		Handler: lambda.NewHandler(v),
		source:  v,
		errs:    errs,
	}
}

// Package errors provides the classified error primitives used across cardlink.
//
// A ClassifiedError carries a category, a severity and a retry strategy next to
// its message, cause and structured context. Errors are built with the fluent
// ErrorBuilder:
//
//	err := errors.WrapError(cause, errors.CategoryNetwork, "redirect follow failed").
//		WithContext("url", target).
//		Retryable().
//		Build()
//
// The HTTP and CLI adapters turn classified errors into status codes, exit codes
// and user-facing messages.
package errors

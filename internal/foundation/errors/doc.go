// Package errors provides the classified error primitives used across docportal.
//
// A ClassifiedError carries a category (config, content, render, sitemap, ...),
// a severity and a retry strategy next to the usual message and cause. Errors are
// created through the fluent ErrorBuilder:
//
//	err := errors.WrapError(cause, errors.CategoryContent, "failed to parse frontmatter").
//		WithContext("path", path).
//		Build()
//
// The CLI adapter turns classified errors into exit codes and user-facing messages.
package errors

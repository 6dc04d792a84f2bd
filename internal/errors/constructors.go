package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *ReadmeGenError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *ReadmeGenError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Plugin construction errors

func UnknownFormat(name string) *ReadmeGenError {
	return New(CategoryFormat, SeverityFatal, "unknown readme format").
		WithContext("format", name)
}

func InvalidPlacement(value string) *ReadmeGenError {
	return New(CategoryPlacement, SeverityFatal, "invalid readme placement").
		WithContext("placement", value)
}

// Build pipeline errors

func MissingSource(name string) *ReadmeGenError {
	return New(CategorySource, SeverityFatal,
		"source artifact not found in build; order this plugin after the step that gathers or generates it").
		WithContext("source", name)
}

func BuildFailed(phase string, cause error) *ReadmeGenError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "build failed").
		WithContext("phase", phase)
}

func WriteFailed(path string, cause error) *ReadmeGenError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "readme write failed").
		WithContext("path", path)
}

// Infrastructure errors

func HistoryError(operation string, cause error) *ReadmeGenError {
	return WrapRetryable(cause, CategoryHistory, SeverityWarning, "history store operation failed").
		WithContext("operation", operation)
}

func NotifyError(subject string, cause error) *ReadmeGenError {
	return WrapRetryable(cause, CategoryNotify, SeverityWarning, "notification publish failed").
		WithContext("subject", subject)
}

// Internal errors

func InternalError(message string, cause error) *ReadmeGenError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}

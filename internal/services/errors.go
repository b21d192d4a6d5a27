package services

// InvalidInputError marks a request payload problem the caller can fix.
// Handlers translate it to a 400 with its message; any other service error is
// an internal failure and surfaces as a generic 500.
type InvalidInputError string

func (e InvalidInputError) Error() string { return string(e) }

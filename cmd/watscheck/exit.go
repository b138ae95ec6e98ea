package main

// Exit codes.
const (
	exitCodeFailOn    = 2 // verdict met the --fail-on threshold, or rows failed to import
	exitCodeBadInput  = 3 // unreadable input, bad flags or config
	exitCodeAPIError  = 4 // the LLM provider could not be reached
	exitCodeBadOutput = 5 // the LLM answer failed validation twice
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return "exit status"
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func exitWith(code int, err error) error {
	return &exitError{code: code, err: err}
}

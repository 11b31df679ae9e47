package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess     = 0 // Round completed with a voted winner
	ExitRoundFailed = 1 // Round could not produce a winner
	ExitError       = 2 // Configuration or runtime error
)

// RoundFailureError indicates that the pipeline was configured correctly but
// the round itself failed, for example because every producer failed.
type RoundFailureError struct {
	Message string
	Err     error
}

func (e *RoundFailureError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *RoundFailureError) Unwrap() error {
	return e.Err
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var roundErr *RoundFailureError
	if errors.As(err, &roundErr) {
		return ExitRoundFailed
	}
	return ExitError
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, context.Canceled):
	case errors.Is(err, errGenerationFailed):
		// Already reported on stderr with its category and request id.
	default:
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}

package main

import (
	stderrors "errors"
	"fmt"
	"io"

	"apiextract/internal/errors"
)

// printError writes err and the suggested fixes of its code to w.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)

	var e *errors.Error
	if !stderrors.As(err, &e) || len(e.SuggestedFixes) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSuggested fixes:")
	for _, fix := range e.SuggestedFixes {
		switch fix.Type {
		case errors.RunCommand:
			fmt.Fprintf(w, "  - run `%s`: %s\n", fix.Command, fix.Description)
		case errors.EditConfig:
			fmt.Fprintf(w, "  - set %s in the configuration: %s\n", fix.Key, fix.Description)
		default:
			fmt.Fprintf(w, "  - %s\n", fix.Description)
		}
	}
}

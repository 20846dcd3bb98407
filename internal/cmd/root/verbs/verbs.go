package verbs

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	View     = VerbValue("view")
	Validate = VerbValue("validate")
	Dump     = VerbValue("dump")
	Version  = VerbValue("version")
)

// Empty type to represent the _type_ Verb. Genesis is to support a key in a Context
type VerbKey struct{}

// Verb is a global instance of the VerbKey type
var Verb = VerbKey{}

// Will represent a specific Verb (view, validate, dump, etc)
type VerbValue string

func (v VerbValue) String() string {
	return string(v)
}

// SingleDocumentArg accepts at most one positional argument, the model file.
// Commands using it read standard input when the argument is omitted.
func SingleDocumentArg(_ *cobra.Command, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("unexpected argument %q: only one model document can be given", args[1])
	}
	return nil
}

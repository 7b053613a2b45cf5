package shared

import (
	"regexp"

	"github.com/spf13/cobra"

	"github.com/go-ports/todo/internal/store"
)

// pflag reads a negative id such as -1 as a cluster of shorthand flags.
var negativeIDFlag = regexp.MustCompile(`^unknown shorthand flag: '\d' in (-\d+)$`)

// IDFlagError is a cobra FlagErrorFunc for verbs taking a task id. A
// negative id is reported the way ParseID reports it; other flag errors
// pass through unchanged.
func IDFlagError(_ *cobra.Command, err error) error {
	if m := negativeIDFlag.FindStringSubmatch(err.Error()); m != nil {
		if _, idErr := store.ParseID(m[1]); idErr != nil {
			return idErr
		}
	}
	return err
}

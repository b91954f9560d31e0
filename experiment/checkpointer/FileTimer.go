package checkpointer

import (
	"path/filepath"
	"time"
)

// TimeLayout is the layout of the timestamp FileTimer appends to names
const TimeLayout = "060102_150405"

// FileTimer returns a function which returns filenames in dir made up
// of prefix, an underscore, the current local time as YYMMDD_HHMMSS
// and extension. For example, FileTimer("policies", "policy", ".csv")
// names files like policies/policy_240131_154502.csv.
func FileTimer(dir, prefix, extension string) func() string {
	return fileTimer(dir, prefix, extension, time.Now)
}

func fileTimer(dir, prefix, extension string,
	now func() time.Time) func() string {
	return func() string {
		name := prefix + "_" + now().Format(TimeLayout) + extension
		return filepath.Join(dir, name)
	}
}

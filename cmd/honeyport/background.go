package main

import (
	"github.com/spf13/pflag"
)

// backgroundArgs builds the child's command line: "start" followed by every
// flag the user explicitly set, except the one that asked for detaching.
func backgroundArgs(flagSets ...*pflag.FlagSet) []string {
	args := []string{"start"}
	seen := make(map[string]bool)
	for _, fs := range flagSets {
		if fs == nil {
			continue
		}
		// Sets filled by AddFlagSet do not track parsed flags; Changed does.
		fs.VisitAll(func(f *pflag.Flag) {
			if !f.Changed || f.Name == "background" || seen[f.Name] {
				return
			}
			seen[f.Name] = true
			args = append(args, "--"+f.Name+"="+f.Value.String())
		})
	}
	return args
}

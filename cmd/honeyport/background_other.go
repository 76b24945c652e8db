//go:build !unix

package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func runBackground(cmd *cobra.Command) error {
	return errors.New("--background is not supported on this platform; use a service manager")
}

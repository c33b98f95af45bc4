package cmd

import (
	"github.com/LanXuage/arpscanner/common"
)

const (
	EXIT_OK        = 0
	EXIT_CONFIG    = 1
	EXIT_TRANSPORT = 2
	EXIT_OUTPUT    = 3
)

// ExitCode maps an error returned by Execute to the process exit status.
// Usage errors reported by cobra count as configuration errors.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return EXIT_OK
	case common.IsTransportError(err):
		return EXIT_TRANSPORT
	case common.IsOutputError(err):
		return EXIT_OUTPUT
	default:
		return EXIT_CONFIG
	}
}

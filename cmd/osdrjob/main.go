// Command osdrjob runs the OSDR subcategory analysis job.
package main

import (
	"os"

	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}

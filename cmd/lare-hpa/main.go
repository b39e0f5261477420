// Command lare-hpa runs the adaptive horizontal autoscaler controller.
package main

import (
	"os"

	"github.com/kdgyun/lare-hpa-go/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

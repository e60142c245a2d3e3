// Command brokenpkg lists foreign pacman packages whose executables no
// longer find their shared libraries. Package names go to stdout, the
// affected files and linker messages to stderr.
package main

import (
	"os"

	"brokenpkg/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}

// cmd/main.go
package main

import cmd "github.com/mwiater/autorun/cmd/autorun"

// main starts the autorun CLI by delegating to the cobra root command
// defined in the autorun package.
func main() {
	cmd.Execute()
}

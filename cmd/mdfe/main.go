// Comando mdfe: emissão e eventos de MDF-e pelo terminal.
package main

import "github.com/Hacerfak/CoreMDFeApp/internal/cli"

func main() {
	cli.Execute()
}

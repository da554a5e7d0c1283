// mcpnotes CLI entry point
//
// mcpnotes hosts a notes server and a code prompts server over the Model
// Context Protocol, on stdio or HTTP.
package main

import "github.com/jbctechsolutions/mcpnotes/internal/presentation/cli/commands"

func main() {
	commands.Execute()
}

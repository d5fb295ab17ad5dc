// Package main is the entry point for the sidekick CLI and server.
package main

import (
	"github.com/zhuliguang/Sidekick/cmd/sidekick/cmd"
)

func main() {
	cmd.Execute()
}

package main

import "github.com/jmehdipour/agent-bridge/cmd"

func main() {
	cmd.Execute()
}

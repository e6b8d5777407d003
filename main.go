package main

import "github.com/agentic-research/vantage/cmd"

func main() {
	cmd.Execute()
}

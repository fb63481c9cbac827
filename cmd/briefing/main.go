package main

import "github.com/chris/briefing/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/emiliopalmerini/effortmap/internal/cli"

func main() {
	cli.Execute()
}

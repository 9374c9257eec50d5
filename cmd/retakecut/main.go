package main

import "github.com/retakecut/retakecut/internal/cli"

func main() {
	cli.Main()
}

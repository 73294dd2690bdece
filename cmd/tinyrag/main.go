package main

import "tinyrag/internal/cli"

func main() {
	cli.Execute()
}

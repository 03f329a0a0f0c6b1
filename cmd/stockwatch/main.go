package main

import (
	"stockwatch/internal/cli"
)

func main() {
	cli.Execute()
}

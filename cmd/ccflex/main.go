package main

import "github.com/mvp-joe/ccflex/internal/cli"

func main() {
	cli.Execute()
}

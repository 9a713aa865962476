package main

import "hggrip/internal/cli"

func main() {
	cli.Execute()
}

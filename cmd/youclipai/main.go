package main

import "github.com/Morris88826/YouClipAI/internal/cli"

func main() {
	cli.Main()
}

package main

import "physics-datasets/internal/cli"

func main() {
	cli.Execute()
}

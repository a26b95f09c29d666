package main

import "github.com/naka-gawa/github-open-items/cmd"

func main() {
	cmd.Execute()
}

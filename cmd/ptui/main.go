package main

import "github.com/narbs/ptui/cmd/ptui/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/kozaktomas/attendanced/cmd"

func main() {
	cmd.Execute()
}

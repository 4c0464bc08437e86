package main

import "github.com/opsboard/opsboard/cmd"

func main() {
	cmd.Execute()
}

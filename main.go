package main

import "github.com/arctir/schedcore/cmd"

func main() {
	cmd.Execute()
}

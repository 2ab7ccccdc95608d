package main

import "github.com/codequotient/cq/cmd"

func main() {
	cmd.Execute()
}

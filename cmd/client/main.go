package main

import "wellnest/cmd/client/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/mj1618/dslr-remote/cmd"

func main() {
	cmd.Execute()
}

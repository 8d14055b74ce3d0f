package main

import "github.com/campushub/campus-forum/cmd"

func main() {
	cmd.Execute()
}

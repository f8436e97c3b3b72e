package main

import "ocrdrop/cmd"

func main() {
	cmd.Execute()
}

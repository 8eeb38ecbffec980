package main

import "civicsetu-be/cmd"

func main() {
	cmd.Execute()
}

package main

import "fargatesoci/cmd"

func main() {
	cmd.Execute()
}

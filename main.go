package main

import (
	"HLL-EVAL/cmd"
	"HLL-EVAL/general"
)

func main() {
	general.ConfigureLogging()
	cmd.Execute()
}

package main

import "github.com/simivar/thol-objects-exporter/src/cmd"

func main() {
	cmd.Execute()
}

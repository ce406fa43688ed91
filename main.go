package main

import (
	"gmaps2nav/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}

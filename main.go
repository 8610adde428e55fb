package main

import (
	"github.com/chyp8/chyp8/cmd"
	"github.com/faiface/pixel/pixelgl"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

// pixelgl needs the main thread, so the whole command runs inside it.
func main() {
	pixelgl.Run(runChyp8)
}

func runChyp8() {
	cmd.Execute(version, commit, date)
}

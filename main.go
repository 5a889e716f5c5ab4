package main

import (
	"log"

	"github.com/anoixa/photo-gallery/cmd"
	"github.com/anoixa/photo-gallery/config"
)

func main() {
	log.Printf("photo gallery %s (%s)", config.Version, config.CommitHash)
	cmd.Execute()
}

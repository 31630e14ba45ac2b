package main

import (
	"log"

	"github.com/bhavishya-khunger/aiformbuilder/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatal(err)
	}
}

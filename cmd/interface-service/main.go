package main

import (
	"fmt"
	"os"

	"github.com/kainbear/interface-service/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "interface-service: %v\n", err)
		os.Exit(1)
	}
}

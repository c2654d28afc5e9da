package main

import (
	"fmt"
	"os"
)

func main() {
	a := &app{}
	if err := execute(a, newRootCmd(a)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

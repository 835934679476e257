// cmd/assetcheck/main.go reports which of the 52 card images a theme directory lacks.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jason-s-yu/fourcard/internal/assets"
	"github.com/jason-s-yu/fourcard/internal/deck"
	"github.com/sirupsen/logrus"
)

func main() {
	dir := flag.String("dir", "", "theme directory holding <code>.png files")
	flag.Parse()

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "usage: assetcheck -dir ./pictures/classic")
		os.Exit(2)
	}

	missing, err := assets.Missing(*dir)
	if err != nil {
		logrus.Fatalf("asset check: %v", err)
	}

	fmt.Printf("Found %d / %d card images in %s\n", deck.Size-len(missing), deck.Size, *dir)
	if len(missing) > 0 {
		fmt.Printf("Missing: %s\n", strings.Join(missing, ", "))
		os.Exit(1)
	}
	fmt.Println("All 52 cards present")
}

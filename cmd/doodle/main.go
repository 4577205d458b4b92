package main

import (
	"fmt"
	"log"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"

	"github.com/causal/go-doodle/internal/config"
)

func main() {
	// A missing .env file is fine: credentials can come from the
	// environment directly.
	_ = godotenv.Load()

	c := config.New()
	displayAppname(c.GetAppName())

	if err := newRootCmd(c).Execute(); err != nil {
		log.Fatalf("Error: %s\n", err)
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Fprintln(os.Stdout)
}

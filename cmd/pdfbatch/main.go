package main

import (
	"context"
	"os"

	"github.com/jdziat/pdfbatch/cmd/pdfbatch/commands"
)

func main() {
	if err := commands.NewCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// Command pagebridge-compile renders one markdown document to Confluence
// storage format on stdout. It reads the file named as the first argument,
// or stdin when no argument (or "-") is given.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/pagebridge/pagebridge/internal/markdown"
)

func main() {
	pflag.Parse()

	var raw []byte
	var err error
	if args := pflag.Args(); len(args) > 0 && args[0] != "-" {
		raw, err = os.ReadFile(args[0])
	} else {
		raw, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		log.Fatalf("failed to read input: %v", err)
	}

	storage, err := markdown.NewCompiler().Compile(raw)
	if err != nil {
		log.Fatalf("failed to compile: %v", err)
	}
	fmt.Println(storage)
}

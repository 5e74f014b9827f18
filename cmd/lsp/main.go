package main

import (
	"log"
	"os"

	"github.com/funvibe/funxy/internal/config"
)

func main() {
	config.IsLSPMode = true // normalizes type variable names ($skolem_/k-prefixed) for hover display

	log.SetFlags(0)          // Disable timestamp in logs
	log.SetOutput(os.Stderr) // Log to stderr, not stdout (stdout is for LSP protocol)

	server := NewLanguageServer(os.Stdout)
	server.Start()
}

package main

import (
	"fmt"
	"os"

	"github.com/meghraj-labs/auris/internal/auth"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: auris-keygen <api-key>")
		fmt.Println("Prints the SHA-256 digest of an API key for use in config.yaml")
		os.Exit(1)
	}

	apiKey := os.Args[1]
	keyHash := auth.HashAPIKey(apiKey)

	fmt.Printf("API Key: %s\n", apiKey)
	fmt.Printf("SHA-256 Hash: %s\n", keyHash)
	fmt.Println("\nAdd this to your config.yaml:")
	fmt.Printf("  auth:\n")
	fmt.Printf("    key_hashes:\n")
	fmt.Printf("      - \"%s\"\n", keyHash)
}

package main

import (
	"fmt"
	"os"

	"github.com/REPPL/itemdeck.app-sub011/pkg/mcp"
)

func main() {
	apiURL := os.Getenv("ITEMDECK_API_URL")

	server := mcp.NewServer(apiURL)
	if err := server.Serve(); err != nil {
		fmt.Fprintf(os.Stderr, "itemdeck-mcp: %v\n", err)
		os.Exit(1)
	}
}

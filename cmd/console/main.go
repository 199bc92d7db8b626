package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"shunyata/internal/console"
)

func main() {
	agentURL := flag.String("agent", "http://127.0.0.1:5001", "Agent base URL")
	name := flag.String("name", "", "Participant name")
	timeout := flag.Duration("timeout", 30*time.Second, "HTTP timeout")
	pretty := flag.Bool("pretty", true, "Pretty print JSON responses")
	flag.Parse()

	client := console.NewClient(*agentURL, *timeout)
	session := console.New(client, *name, *pretty)
	if err := session.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "console failed: %v\n", err)
		os.Exit(1)
	}
}

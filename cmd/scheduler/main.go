package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/hackgods/vaccine-scheduler/internal/cli"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(rootCtx); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
}

// guard-tail follows the status feed of a running phoneguard and prints a
// line whenever the mode, the detection count or the alert image changes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/phoneguard/internal/log"
)

func main() {
	addr := flag.String("addr", "localhost:8181", "phoneguard dashboard address")
	raw := flag.Bool("raw", false, "Print the raw JSON messages")
	retry := flag.Duration("retry", 2*time.Second, "Delay between reconnect attempts (0 disables reconnecting)")
	flag.Parse()

	log.Init(os.Getenv("LOG_LEVEL"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	t := &Tail{
		URL:   fmt.Sprintf("ws://%s/ws/status", *addr),
		Raw:   *raw,
		Out:   os.Stdout,
		Retry: *retry,
	}
	if err := t.Run(ctx); err != nil {
		log.Error("tail stopped", "error", err)
		os.Exit(1)
	}
}

// Command klvctl scores roster files and seeds a running KLV service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/klv/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "klvctl:", err)
		os.Exit(1)
	}
}

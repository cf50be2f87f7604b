// Command tradehub-cli is a terminal client for a TradeHub server.
//
// Usage:
//
//	tradehub-cli [-server URL] [-token-file PATH] <command> [flags]
//
// Commands: register, login, logout, me, trades, notifications, read-all.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/stackaudit/internal/cli"
	"github.com/matzehuels/stackaudit/pkg/metrics"
	"github.com/matzehuels/stackaudit/pkg/observability"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := metrics.New(metrics.DefaultNamespace)
	observability.SetAuditHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)

	if err := cli.Execute(ctx, os.Stderr, m.Handler()); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

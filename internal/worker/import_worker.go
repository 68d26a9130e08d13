// Package worker runs the import pipeline: a poller publishes rows from
// external sources to the queue, and a consumer writes them to the ledger.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"nummus/internal/amqp"
	"nummus/internal/importer"
	"nummus/internal/services"
)

// ImportWorker consumes queued import messages and applies them through
// the import service. Failures requeue; duplicates are acked as no-ops.
type ImportWorker struct {
	imports *services.ImportService
	client  *amqp.Client
}

func NewImportWorker(imports *services.ImportService, client *amqp.Client) *ImportWorker {
	return &ImportWorker{imports: imports, client: client}
}

// Run blocks consuming messages until the context is cancelled.
func (w *ImportWorker) Run(ctx context.Context) error {
	return w.client.ConsumeImports(ctx, func(msg *amqp.TransactionImportMessage) error {
		_, err := w.imports.Import(ctx, msg)
		return err
	})
}

// Poller periodically fetches rows from a source and publishes them. The
// consumer's idempotency makes re-publishing already-imported rows safe.
type Poller struct {
	source    importer.Source
	client    *amqp.Client
	batchSize int
	interval  time.Duration
}

func NewPoller(source importer.Source, client *amqp.Client, batchSize int, interval time.Duration) *Poller {
	return &Poller{source: source, client: client, batchSize: batchSize, interval: interval}
}

// Run polls once immediately, then on every tick, until cancellation.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.poll(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial poll failed", "error", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping poller", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := p.poll(ctx); err != nil {
				slog.ErrorContext(ctx, "Poll failed", "error", err)
			}
		}
	}
}

func (p *Poller) poll(ctx context.Context) error {
	rows, err := p.source.Fetch(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("fetch rows: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	published := 0
	for _, row := range rows {
		msg := amqp.NewTransactionImportMessage(
			row.ImportID, row.Account, row.Date, row.Amount,
			row.Payee, row.Category, row.Statement)
		if err := p.client.PublishImport(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Publish failed", "import_id", row.ImportID, "error", err)
			continue
		}
		published++
	}

	slog.InfoContext(ctx, "Poll cycle finished", "rows", len(rows), "published", published)
	return nil
}

// Run starts the consumer and, when a source is configured, the poller,
// and waits for both to stop.
func Run(ctx context.Context, w *ImportWorker, p *Poller) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(ctx) })
	if p != nil {
		g.Go(func() error { return p.Run(ctx) })
	}
	return g.Wait()
}

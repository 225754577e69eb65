// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package jobs runs the periodic maintenance work: flushing buffered
// view counts to Postgres and reconciling denormalized category post
// counters against the association table.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"spruceup/internal/cache"
	"spruceup/internal/store"
)

// Runner owns the cron scheduler and the job dependencies.
type Runner struct {
	cron       *cron.Cron
	views      *cache.ViewBuffer
	posts      *store.PostStore
	categories *store.CategoryStore
}

func NewRunner(views *cache.ViewBuffer, posts *store.PostStore, categories *store.CategoryStore) *Runner {
	return &Runner{
		cron:       cron.New(),
		views:      views,
		posts:      posts,
		categories: categories,
	}
}

// Start registers the schedules and launches the scheduler. View counts
// flush every two minutes; counter reconciliation runs nightly when
// traffic is low.
func (r *Runner) Start() error {
	if _, err := r.cron.AddFunc("*/2 * * * *", r.FlushViews); err != nil {
		return err
	}
	if _, err := r.cron.AddFunc("30 3 * * *", r.ReconcileCounts); err != nil {
		return err
	}
	r.cron.Start()
	slog.Info("background jobs started")
	return nil
}

// Stop waits for running jobs to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(30 * time.Second):
		slog.Warn("background jobs did not stop in time")
	}
}

// FlushViews drains the Redis view buffer and applies the accumulated
// deltas to Postgres. A post that fails to update keeps the rest of the
// batch flowing; its views are lost, which is acceptable for a
// popularity signal.
func (r *Runner) FlushViews() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	counts, err := r.views.Drain(ctx)
	if err != nil {
		slog.Error("view flush: drain failed", "error", err)
		return
	}
	if len(counts) == 0 {
		return
	}

	flushed := 0
	for id, delta := range counts {
		if err := r.posts.AddViews(id, delta); err != nil {
			slog.Warn("view flush: update failed", "post", id, "delta", delta, "error", err)
			continue
		}
		flushed++
	}
	slog.Info("view counts flushed", "posts", flushed)
}

// ReconcileCounts recomputes every category's post counter from the
// association table, repairing drift left by failed counter updates.
func (r *Runner) ReconcileCounts() {
	start := time.Now()
	fixed, err := r.categories.ReconcilePostCounts()
	if err != nil {
		slog.Error("counter reconciliation failed", "error", err)
		return
	}
	slog.Info("counters reconciled", "fixed", fixed, "duration", time.Since(start).String())
}

package tasks

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/db"
	"github.com/jobmesh/jobmesh/internal/metrics"
	"github.com/jobmesh/jobmesh/internal/repositories"
	"github.com/jobmesh/jobmesh/internal/scriptgate"
	"github.com/jobmesh/jobmesh/internal/status"
)

// Runner loads every Prepared Payload and executes its run.sh, mapping the
// outcome to Completed, Invalid, or Failed per §4.5. A non-zero script exit
// is a successful run with an unhappy outcome — Completed, not Failed.
type Runner struct {
	Payloads repositories.PayloadRepository
	Logger   *zap.Logger
}

// Run loads all Prepared payloads and executes them concurrently, one task
// per payload, awaiting all of them before returning.
func (r *Runner) Run(ctx context.Context) error {
	log := r.Logger.Named("runner")
	payloads, err := r.Payloads.ListByStatus(ctx, status.Prepared)
	if err != nil {
		log.Error("listing prepared payloads", zap.Error(err))
		return err
	}
	if len(payloads) == 0 {
		return nil
	}
	log.Info("executing payloads", zap.Int("count", len(payloads)))

	done := make(chan struct{}, len(payloads))
	for _, payload := range payloads {
		payload := payload
		go func() {
			defer func() { done <- struct{}{} }()
			r.runOne(ctx, payload, log)
		}()
	}
	for range payloads {
		<-done
	}
	return nil
}

func (r *Runner) runOne(ctx context.Context, payload db.Payload, log *zap.Logger) {
	next, runErr := executePayload(ctx, payload)
	if runErr != nil {
		log.Warn("payload execution outcome",
			zap.Uint64("payload_id", payload.ID),
			zap.String("next_status", next.String()),
			zap.Error(runErr),
		)
	}
	if err := r.Payloads.UpdateStatus(ctx, payload.ID, next); err != nil {
		log.Error("status update failed",
			zap.Uint64("payload_id", payload.ID),
			zap.String("next_status", next.String()),
			zap.Error(err),
		)
		return
	}
	metrics.PayloadsProcessed.WithLabelValues(next.String()).Inc()
}

// errNoExecScript is returned by executePayload when run.sh is missing. It
// and the gate's *scriptgate.UnsafeScriptError are the two "user error"
// cases that map to Invalid rather than Failed.
var (
	errNoExecScript = errors.New("run.sh not found")
)

// executePayload requires <loc>/run.sh to exist, passes it through the
// script-safety gate, and runs bash run.sh with cwd set to loc. The child
// inherits the parent's environment and filesystem view; no isolation is
// provided.
func executePayload(ctx context.Context, payload db.Payload) (status.Status, error) {
	if payload.Loc == nil {
		return status.Invalid, errNoExecScript
	}
	loc := *payload.Loc
	scriptPath := filepath.Join(loc, "run.sh")

	contents, err := os.ReadFile(scriptPath)
	if err != nil {
		return status.Invalid, errNoExecScript
	}

	if gateErr := scriptgate.Check(string(contents)); gateErr != nil {
		return status.Invalid, gateErr
	}

	cmd := exec.CommandContext(ctx, "bash", scriptPath)
	cmd.Dir = loc
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Non-zero exit is a successful run with an unhappy outcome.
			return status.Completed, nil
		}
		return status.Failed, err
	}
	return status.Completed, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"browser-harness/internal/application/port/input"
	"browser-harness/internal/application/port/output"
	"browser-harness/internal/config"
	"browser-harness/internal/di"
	"browser-harness/internal/domain/entity"
	"browser-harness/internal/infrastructure/userinteraction"

	"github.com/fatih/color"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui := userinteraction.NewConsoleUserInteraction()
	if err := newRootCmd(ui, runTask).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		stop()
		os.Exit(1)
	}
}

func runTask(ctx context.Context, cfg *config.Config, ui output.UserInteractionPort, req input.TaskRequest) (*entity.TrajectoryResult, error) {
	container, err := di.NewContainer(ctx, cfg, ui)
	if err != nil {
		return nil, fmt.Errorf("initialization failed: %w", err)
	}
	defer container.Close()

	container.Logger.Info("Task started", "query", req.Query, "schema", len(req.Schema) > 0)
	result, err := container.TaskExecutor.Execute(ctx, req)
	if err != nil {
		container.Logger.Error("Task failed", "error", err)
		return nil, err
	}
	container.Logger.Info("Task completed", "trajectory", result.ID, "steps", result.Steps)
	return result, nil
}

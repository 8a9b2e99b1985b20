package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"browser-harness/internal/application/port/output"
	"browser-harness/internal/application/service"
	"browser-harness/internal/domain/entity"
)

const maxObservationLen = 20000

// Dispatcher runs one tool call at a time against the session's browser and
// turns every outcome into an ActionResult. It never returns an error: the
// trajectory loop feeds failures back to the model.
type Dispatcher struct {
	mu       sync.Mutex
	registry output.ToolRegistry
	session  output.SessionPort
	logger   output.LoggerPort
}

func New(registry output.ToolRegistry, session output.SessionPort, logger output.LoggerPort) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		session:  session,
		logger:   logger,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, req entity.ActionRequest) entity.ActionResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	result := d.dispatch(ctx, req)
	result.ToolName = req.ToolName
	result.Duration = time.Since(start)

	if result.Status == entity.ActionDone {
		d.logger.Debug("Tool completed", "name", req.ToolName, "resultLen", len(result.Payload), "duration", result.Duration)
	} else {
		d.logger.Error(fmt.Sprintf("✗ [%s] %s", label(req.ToolName), result.Payload), "status", result.Status)
	}
	if errors.Is(result.Err, entity.ErrSessionLost) {
		d.logger.Error("Browser session lost", "name", req.ToolName)
	}
	return result
}

func (d *Dispatcher) dispatch(ctx context.Context, req entity.ActionRequest) entity.ActionResult {
	if d.session.Closed() {
		return rejected(entity.ErrSessionClosed, "Error: the browser session is closed")
	}

	tool, ok := d.registry.Get(req.ToolName)
	if !ok {
		return rejected(fmt.Errorf("%w: %s", entity.ErrUnknownTool, req.ToolName),
			fmt.Sprintf("Error: unknown tool '%s'", req.ToolName))
	}

	args, err := service.ValidateArguments(req.Arguments, tool.Parameters())
	if err != nil {
		return rejected(err, "Error: "+err.Error())
	}

	d.logger.Info(fmt.Sprintf("[%s] %s", label(req.ToolName), entity.RedactArguments(req.Arguments)))

	runCtx := ctx
	var timeout time.Duration
	if policy, ok := tool.(output.TimeoutPolicy); ok {
		if timeout = policy.Timeout(args); timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
	}

	out, err := execute(runCtx, tool, req.Arguments)
	switch {
	case err == nil:
		return d.done(tool, out)
	case timeout > 0 && ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded):
		msg := tool.(output.TimeoutPolicy).TimedOutMessage(args, timeout)
		return entity.ActionResult{
			Status:        entity.ActionTimedOut,
			Payload:       msg,
			ContentBlocks: []entity.ContentBlock{entity.TextBlock(msg)},
			Err:           fmt.Errorf("%w: %s", entity.ErrTimedOut, msg),
		}
	default:
		msg := truncate("Error: " + err.Error())
		return entity.ActionResult{
			Status:        entity.ActionFailed,
			Payload:       msg,
			ContentBlocks: []entity.ContentBlock{entity.TextBlock(msg)},
			Err:           fmt.Errorf("%w: %w", entity.ErrActionFailed, err),
		}
	}
}

func (d *Dispatcher) done(tool output.ToolPort, out *output.ToolOutput) entity.ActionResult {
	if out == nil {
		out = &output.ToolOutput{}
	}
	out.Text = truncate(out.Text)

	var blocks []entity.ContentBlock
	if formatter, ok := tool.(output.ResultFormatter); ok {
		blocks = formatter.FormatResult(out)
	} else {
		blocks = []entity.ContentBlock{entity.TextBlock(out.Text)}
	}

	return entity.ActionResult{
		Status:        entity.ActionDone,
		Success:       true,
		Payload:       out.Text,
		Binary:        out.Binary,
		ContentBlocks: blocks,
	}
}

func execute(ctx context.Context, tool output.ToolPort, args string) (out *output.ToolOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", tool.Name(), r)
		}
	}()
	return tool.Execute(ctx, args)
}

func rejected(err error, msg string) entity.ActionResult {
	return entity.ActionResult{
		Status:        entity.ActionRejected,
		Payload:       msg,
		ContentBlocks: []entity.ContentBlock{entity.TextBlock(msg)},
		Err:           err,
	}
}

func truncate(s string) string {
	if len(s) <= maxObservationLen {
		return s
	}
	cut := maxObservationLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n... (truncated)"
}

func label(name entity.ToolName) string {
	return strings.ToUpper(string(name))
}

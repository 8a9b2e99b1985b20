package userinteraction

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"browser-harness/internal/application/port/output"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"golang.org/x/term"
)

var _ output.UserInteractionPort = (*ConsoleUserInteraction)(nil)

type ConsoleUserInteraction struct {
	in     *bufio.Reader
	inFile  *os.File
	out     io.Writer
	outFile *os.File
	mu      sync.Mutex
}

func NewConsoleUserInteraction() *ConsoleUserInteraction {
	return &ConsoleUserInteraction{
		in:      bufio.NewReader(os.Stdin),
		inFile:  os.Stdin,
		out:     color.Output,
		outFile: os.Stdout,
	}
}

// NewConsoleWithIO is used by tests and non-interactive runs.
func NewConsoleWithIO(in io.Reader, out io.Writer) *ConsoleUserInteraction {
	return &ConsoleUserInteraction{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (u *ConsoleUserInteraction) Ask(ctx context.Context, question string) (string, error) {
	fmt.Fprint(u.out, question)
	return u.readLine()
}

// AskSecret hides the input when stdin is a terminal.
func (u *ConsoleUserInteraction) AskSecret(ctx context.Context, question string) (string, error) {
	fmt.Fprint(u.out, question)

	if u.inFile != nil && term.IsTerminal(int(u.inFile.Fd())) {
		secret, err := term.ReadPassword(int(u.inFile.Fd()))
		fmt.Fprintln(u.out)
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return strings.TrimSpace(string(secret)), nil
	}
	return u.readLine()
}

func (u *ConsoleUserInteraction) readLine() (string, error) {
	answer, err := u.in.ReadString('\n')
	if err != nil && !(err == io.EOF && answer != "") {
		return "", fmt.Errorf("failed to read user input: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// StartSpinner draws only when the output is a terminal.
func (u *ConsoleUserInteraction) StartSpinner(message string) func() {
	opt := spinner.WithWriter(u.out)
	if u.outFile != nil {
		opt = spinner.WithWriterFile(u.outFile)
	}
	s := spinner.New(spinner.CharSets[14], 80*time.Millisecond, opt, spinner.WithColor("cyan"))
	s.Suffix = " " + message
	s.Start()

	var once sync.Once
	return func() {
		once.Do(s.Stop)
	}
}

func (u *ConsoleUserInteraction) ShowStep(ctx context.Context, step, maxSteps int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	color.New(color.Faint).Fprintf(u.out, "\n── step %d/%d ──\n", step, maxSteps)
}

func (u *ConsoleUserInteraction) ShowToolStart(ctx context.Context, toolName, arguments string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	color.New(color.FgYellow, color.Bold).Fprintf(u.out, "\n[%s]", strings.ToUpper(toolName))
	if summary := formatToolArguments(toolName, arguments); summary != "" {
		color.New(color.Faint).Fprintf(u.out, " %s", summary)
	}
	fmt.Fprintln(u.out)
}

func (u *ConsoleUserInteraction) ShowToolResult(ctx context.Context, toolName, result string, isError bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if isError {
		color.New(color.FgRed).Fprint(u.out, "✗ ")
		color.New(color.Faint).Fprintln(u.out, truncate(result, 300))
		return
	}
	color.New(color.FgGreen).Fprintf(u.out, "✓ %s\n", truncate(firstLine(result), 150))
}

func (u *ConsoleUserInteraction) StreamText(ctx context.Context, chunk string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprint(u.out, chunk)
}

func (u *ConsoleUserInteraction) ShowFinal(ctx context.Context, answer string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	color.New(color.FgGreen, color.Bold).Fprintln(u.out, "\n\n---FINISHED---")
}

func formatToolArguments(toolName, arguments string) string {
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return ""
	}

	switch toolName {
	case "navigate":
		if url, ok := args["url"].(string); ok {
			return url
		}
	case "wait":
		if s, ok := args["seconds"].(float64); ok {
			return fmt.Sprintf("%vs", s)
		}
	case "act":
		action, _ := args["action"].(string)
		if iframe, _ := args["hasIframe"].(bool); iframe {
			return truncate(action, 80) + " (visual agent)"
		}
		return truncate(action, 80)
	case "extract":
		if instr, ok := args["searchInstruction"].(string); ok {
			return truncate(instr, 80)
		}
	case "observe":
		if instr, ok := args["instruction"].(string); ok {
			return truncate(instr, 80)
		}
	}
	return ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

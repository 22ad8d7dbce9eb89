package syncer

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Notifier показывает пользователю итог синхронизации
type Notifier interface {
	Success(msg string)
	Failure(msg string)
}

// SyncedMessage текст уведомления об успешно отправленных операциях
func SyncedMessage(n int) string {
	return fmt.Sprintf("Synced %d offline %s", n, plural(n, "change", "changes"))
}

// FailedMessage текст уведомления о неотправленных операциях
func FailedMessage(n int) string {
	return fmt.Sprintf("%d %s failed to sync", n, plural(n, "change", "changes"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// ConsoleNotifier печатает цветные уведомления в терминал
type ConsoleNotifier struct {
	mu      sync.Mutex
	out     io.Writer
	success *color.Color
	failure *color.Color
}

func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{
		out:     out,
		success: color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
	}
}

func (n *ConsoleNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.success.Fprintf(n.out, "✓ %s\n", msg)
}

func (n *ConsoleNotifier) Failure(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failure.Fprintf(n.out, "✗ %s\n", msg)
}

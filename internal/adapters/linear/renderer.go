// Package linear provides a synchronous, line-oriented renderer for task progress.
package linear

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/ui/output"
	"go.trai.ch/forge/internal/ui/style"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer implements ports.Renderer with chronological, task-prefixed lines.
type Renderer struct {
	w      io.Writer
	output *termenv.Output

	mu    sync.Mutex
	tasks map[string]taskState // spanID -> task state
}

type taskState struct {
	name      string
	startTime time.Time
}

// NewRenderer creates a new Renderer writing to w. If w is nil, os.Stderr is used.
func NewRenderer(w io.Writer) *Renderer {
	if w == nil {
		w = os.Stderr
	}

	return &Renderer{
		w:      w,
		output: output.NewWithProfile(w, output.ColorProfileANSI),
		tasks:  make(map[string]taskState),
	}
}

// OnPlanEmit prints the planned execution order.
func (r *Renderer) OnPlanEmit(tasks []string, target string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line := fmt.Sprintf("Planning %d task(s) for %s: %s",
		len(tasks), target, strings.Join(tasks, " "+style.Arrow+" "))
	_, _ = fmt.Fprintln(r.w, r.output.String(line).Faint().String())
}

// OnTaskStart prints a task start message.
func (r *Renderer) OnTaskStart(spanID, _ /* parentID */, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[spanID] = taskState{
		name:      name,
		startTime: startTime,
	}

	_, _ = fmt.Fprintf(r.w, "%s Starting...\n", r.prefix(name))
}

// OnTaskComplete prints the completion status of a started task.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[spanID]
	if !ok {
		return
	}
	delete(r.tasks, spanID)

	duration := formatDuration(endTime.Sub(task.startTime))

	if err != nil {
		symbol := r.output.String(style.Cross).Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(r.w, "%s %s Failed after %s: %v\n",
			r.prefix(task.name), symbol, duration, err)
		return
	}

	symbol := r.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
	_, _ = fmt.Fprintf(r.w, "%s %s Completed in %s\n",
		r.prefix(task.name), symbol, duration)
}

func (r *Renderer) prefix(name string) string {
	return r.output.String(fmt.Sprintf("[%s]", name)).Faint().String()
}

// formatDuration rounds d for display.
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return d.Round(10 * time.Millisecond).String()
	case d >= time.Millisecond:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(time.Microsecond).String()
	}
}

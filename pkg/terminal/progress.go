package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Progress bar characters.
const (
	ProgressFilled = "█"
	ProgressEmpty  = "░"
)

const progressBarWidth = 20

// DrawProgressBar draws a progress bar of the given width.
// Value is clamped to [0, 1].
func DrawProgressBar(value float64, width int) string {
	value = min(max(value, 0), 1)
	filled := int(value * float64(width))

	return strings.Repeat(ProgressFilled, filled) + strings.Repeat(ProgressEmpty, width-filled)
}

// FormatMinutes formats d as minutes with two decimals.
func FormatMinutes(d time.Duration) string {
	return fmt.Sprintf("%.2f min", d.Minutes())
}

// Progress reports a loop of N checkouts: a header per checkout with the
// average iteration time and the remaining-time estimate, and the total
// time once finished.
type Progress struct {
	mu    sync.Mutex
	w     io.Writer
	cfg   Config
	total int
	done  int
	start time.Time
	now   func() time.Time
}

// NewProgress starts tracking total iterations.
func NewProgress(w io.Writer, cfg Config, total int) *Progress {
	return NewProgressWithClock(w, cfg, total, time.Now)
}

// NewProgressWithClock is NewProgress with an injected clock.
func NewProgressWithClock(w io.Writer, cfg Config, total int, now func() time.Time) *Progress {
	return &Progress{w: w, cfg: cfg, total: total, start: now(), now: now}
}

// Average returns the mean duration of finished iterations.
func (p *Progress) Average() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.average()
}

func (p *Progress) average() time.Duration {
	if p.done == 0 {
		return 0
	}

	return p.now().Sub(p.start) / time.Duration(p.done)
}

// ETA estimates the time left for the unfinished iterations.
func (p *Progress) ETA() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.eta()
}

func (p *Progress) eta() time.Duration {
	return p.average() * time.Duration(max(p.total-p.done, 0))
}

// Begin prints the header of the checkout label.
func (p *Progress) Begin(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	title := fmt.Sprintf("%s %d/%d", label, p.done+1, p.total)
	right := fmt.Sprintf("avg %s  ETA %s", FormatMinutes(p.average()), FormatMinutes(p.eta()))

	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.cfg.Colorize(DrawHeader(title, right, p.cfg.Width), ColorBlue))
}

// Commit prints the resolved commit of the current checkout.
func (p *Progress) Commit(hash, date string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w, p.cfg.Colorize(fmt.Sprintf("commit %s %s", hash, date), ColorGray))
}

// Result prints one tool's KPI, colored by its leading value.
func (p *Progress) Result(alias, kpi string, leading float64, cached bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	suffix := ""
	if cached {
		suffix = " (cached)"
	}

	fmt.Fprintf(p.w, "  %s %s%s\n", PadRight(alias, 12), p.cfg.Colorize(kpi, ColorForCode(leading)), suffix)
}

// End marks the current iteration finished.
func (p *Progress) End() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++

	var fraction float64
	if p.total > 0 {
		fraction = float64(p.done) / float64(p.total)
	}

	fmt.Fprintf(p.w, "%s %d/%d\n", DrawProgressBar(fraction, progressBarWidth), p.done, p.total)
	fmt.Fprintln(p.w, DrawSeparator(p.cfg.Width))
}

// Finish prints the total time passed.
func (p *Progress) Finish() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := p.now().Sub(p.start)
	fmt.Fprintln(p.w, p.cfg.Colorize("Time passed: "+FormatMinutes(elapsed), ColorGreen))

	return elapsed
}

// Package progress renders the batch progress bar.
package progress

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Bar counts finished jobs. Tick is safe for concurrent use.
type Bar struct {
	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	ticks int
	total int
}

func New(w io.Writer, total int) *Bar {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			io.WriteString(w, "\n")
		}),
	)
	return &Bar{bar: bar, total: total}
}

// Tick marks one job as settled.
func (b *Bar) Tick() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ticks++
	_ = b.bar.Add(1)
}

// Ticks returns how many jobs have settled so far.
func (b *Bar) Ticks() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ticks
}

func (b *Bar) Total() int {
	return b.total
}

// SPDX-License-Identifier: MIT

package mcmc

import (
	"fmt"
	"io"

	"github.com/gosuri/uiprogress"
)

// Progress receives one Step per finished iteration and Done at the end.
type Progress interface {
	Step()
	Done()
}

// Bar is a terminal progress bar over a fixed number of iterations.
type Bar struct {
	progress *uiprogress.Progress
	bar      *uiprogress.Bar
}

// NewBar starts a progress bar of total iterations rendered to out.
func NewBar(total int, out io.Writer) *Bar {
	p := uiprogress.New()
	p.SetOut(out)
	p.Start()
	bar := p.AddBar(total).AppendCompleted().PrependElapsed()
	bar.PrependFunc(func(b *uiprogress.Bar) string {
		return fmt.Sprintf("iter %d/%d", b.Current(), b.Total)
	})
	return &Bar{progress: p, bar: bar}
}

// Step advances the bar by one iteration.
func (b *Bar) Step() { b.bar.Incr() }

// Done renders the final state and stops the bar.
func (b *Bar) Done() { b.progress.Stop() }

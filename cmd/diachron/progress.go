package main

import (
	"github.com/gosuri/uiprogress"
)

// progress renders uiprogress bars when enabled. A disabled progress hands
// out bars that do nothing.
type progress struct {
	enabled bool
	started bool
}

type progressBar struct {
	bar *uiprogress.Bar
}

func newProgress(enabled bool) *progress {
	return &progress{enabled: enabled}
}

// Bar adds a bar of total steps, starting the rendering with the first bar.
func (p *progress) Bar(total int) *progressBar {
	if !p.enabled || total == 0 {
		return &progressBar{}
	}

	if !p.started {
		uiprogress.Start() // start rendering
		p.started = true
	}

	bar := uiprogress.AddBar(total)
	bar.AppendCompleted()
	bar.PrependElapsed()
	return &progressBar{bar: bar}
}

func (p *progress) Stop() {
	if p.started {
		// stop rendering
		uiprogress.Stop()
		p.started = false
	}
}

func (b *progressBar) Incr() {
	if b.bar != nil {
		b.bar.Incr()
	}
}

package observer

import (
	"io"
	"sync"

	"github.com/cheggaaa/pb/v3"

	"github.com/jdziat/pdfbatch/pkg/core"
)

const barTemplate = `{{counters . }} {{ bar . "[" "=" ">" " " "]"}} {{percent . }} {{string . "item"}}`

// ProgressBar renders overall progress as a terminal bar.
type ProgressBar struct {
	w      io.Writer
	static bool

	mu  sync.Mutex
	bar *pb.ProgressBar
}

// NewProgressBar returns a bar writing to w that refreshes itself.
func NewProgressBar(w io.Writer) *ProgressBar {
	return &ProgressBar{w: w}
}

// NewStaticProgressBar returns a bar that only redraws when an event arrives.
func NewStaticProgressBar(w io.Writer) *ProgressBar {
	return &ProgressBar{w: w, static: true}
}

// Observe updates the bar.
func (p *ProgressBar) Observe(e core.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev := e.(type) {
	case *core.BatchStarted:
		p.start(ev.Total)
	case *core.OverallProgress:
		if p.bar == nil {
			p.start(ev.Max)
		}
		p.bar.SetTotal(int64(ev.Max))
		p.bar.SetCurrent(int64(ev.Value))
	case *core.ItemProgress:
		if p.bar == nil {
			return
		}
		p.bar.Set("item", ev.Label)
	case *core.BatchDone:
		if p.bar == nil {
			return
		}
		p.bar.Set("item", "")
		p.redraw()
		p.bar.Finish()
		p.bar = nil
		return
	default:
		return
	}
	p.redraw()
}

func (p *ProgressBar) start(total int) {
	if p.bar != nil {
		p.bar.Finish()
	}
	p.bar = pb.New(total).
		SetTemplateString(barTemplate).
		SetWriter(p.w).
		Set(pb.Static, p.static).
		Set("item", "")
	p.bar.Start()
}

func (p *ProgressBar) redraw() {
	if p.static && p.bar != nil {
		p.bar.Write()
	}
}

// Current returns the bar position and total, or zeros when no run is shown.
func (p *ProgressBar) Current() (value, max int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		return 0, 0
	}
	return p.bar.Current(), p.bar.Total()
}

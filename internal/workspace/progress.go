package workspace

// ProgressReporter receives the LSP $/progress-style notifications
// spec.md §4.G requires for a cold-start scan: begin exactly once,
// then zero or more report calls, then end exactly once.
type ProgressReporter interface {
	Begin(total int)
	Report(indexed, total int)
	End()
}

type noopReporter struct{}

func (noopReporter) Begin(int)       {}
func (noopReporter) Report(int, int) {}
func (noopReporter) End()            {}

// publisher serialises calls onto reporter through a single
// goroutine reading a buffered channel, so "end" can never be
// observed before "begin" at the client even if report calls race
// across the cold-start worker pool — spec.md §4.G's "channel-
// serialised publisher" requirement.
type publisher struct {
	reporter ProgressReporter
	events   chan func()
	done     chan struct{}
}

func newPublisher(reporter ProgressReporter) *publisher {
	p := &publisher{
		reporter: reporter,
		events:   make(chan func(), 64),
		done:     make(chan struct{}),
	}
	go func() {
		defer close(p.done)
		for fn := range p.events {
			fn()
		}
	}()
	return p
}

func (p *publisher) begin(total int) {
	p.events <- func() { p.reporter.Begin(total) }
}

func (p *publisher) report(indexed, total int) {
	p.events <- func() { p.reporter.Report(indexed, total) }
}

func (p *publisher) end() {
	p.events <- func() { p.reporter.End() }
}

func (p *publisher) close() {
	close(p.events)
	<-p.done
}

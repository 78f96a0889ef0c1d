package engine

// Progress receives per-pledge progress during a sync. Implementations need
// not be safe for concurrent use.
type Progress interface {
	Start(total int)
	Advance()
	Finish()
}

type noopProgress struct{}

func (noopProgress) Start(int) {}
func (noopProgress) Advance()  {}
func (noopProgress) Finish()   {}

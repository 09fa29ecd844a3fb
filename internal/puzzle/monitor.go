package puzzle

// Indicator is the completion message shown to the player.
type Indicator interface {
	SetVisible(visible bool)
}

// IndicatorFunc adapts a function to an Indicator.
type IndicatorFunc func(visible bool)

func (f IndicatorFunc) SetVisible(visible bool) {
	f(visible)
}

// CompletionMonitor aggregates the occupancy of all solution slots.
type CompletionMonitor struct {
	indicator Indicator
}

func NewCompletionMonitor(indicator Indicator) *CompletionMonitor {
	if indicator == nil {
		indicator = IndicatorFunc(func(bool) {})
	}
	return &CompletionMonitor{indicator: indicator}
}

// Evaluate reports Completed when there is at least one slot and every slot is occupied.
func (m *CompletionMonitor) Evaluate(slots []Slot) Completion {
	if len(slots) == 0 {
		return Incomplete
	}
	for _, slot := range slots {
		if !slot.Occupied() {
			return Incomplete
		}
	}
	return Completed
}

// Check evaluates the slots and shows the indicator only when the puzzle is completed.
func (m *CompletionMonitor) Check(slots []Slot) Completion {
	completion := m.Evaluate(slots)
	m.indicator.SetVisible(completion == Completed)
	return completion
}

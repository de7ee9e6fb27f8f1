package indicators

// DefaultWindowCapacity is the number of quotes kept per instrument.
const DefaultWindowCapacity = 100

// PriceWindow is a capacity-bounded FIFO of quotes for one instrument.
// It is owned by a single stream session and is not safe for concurrent use.
type PriceWindow struct {
	capacity int
	values   []float64
}

func NewPriceWindow(capacity int) *PriceWindow {
	if capacity <= 0 {
		capacity = DefaultWindowCapacity
	}
	return &PriceWindow{capacity: capacity, values: make([]float64, 0, capacity+1)}
}

// Push appends a quote and evicts the oldest entries beyond capacity.
func (w *PriceWindow) Push(v float64) {
	w.values = append(w.values, v)
	if over := len(w.values) - w.capacity; over > 0 {
		n := copy(w.values, w.values[over:])
		w.values = w.values[:n]
	}
}

// Replace swaps the whole window for prices, keeping only the newest capacity entries.
func (w *PriceWindow) Replace(prices []float64) {
	if len(prices) > w.capacity {
		prices = prices[len(prices)-w.capacity:]
	}
	w.values = append(w.values[:0], prices...)
}

// Values returns a copy of the window, oldest first.
func (w *PriceWindow) Values() []float64 {
	out := make([]float64, len(w.values))
	copy(out, w.values)
	return out
}

func (w *PriceWindow) Len() int      { return len(w.values) }
func (w *PriceWindow) Capacity() int { return w.capacity }

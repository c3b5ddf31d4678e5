package segmenter

// amplitudeWindow is a fixed-capacity ring buffer of per-frame mean absolute
// amplitudes with a running sum, used to compute the smoothed average that
// gates the silence threshold.
//
// Invariant: sum always equals the sum of the currently retained entries,
// and at most cap(entries) entries are retained.
type amplitudeWindow struct {
	entries []float64
	head    int // index of the oldest entry
	count   int
	sum     float64
}

func newAmplitudeWindow(size int) *amplitudeWindow {
	return &amplitudeWindow{entries: make([]float64, size)}
}

// push appends a new amplitude, evicting the oldest entry when the window is
// full, and returns the smoothed average over the retained entries.
func (w *amplitudeWindow) push(amplitude float64) float64 {
	if w.count == len(w.entries) {
		w.sum -= w.entries[w.head]
		w.head = (w.head + 1) % len(w.entries)
		w.count--
	}
	w.entries[(w.head+w.count)%len(w.entries)] = amplitude
	w.count++
	w.sum += amplitude
	return w.sum / float64(w.count)
}

// reset clears all retained entries.
func (w *amplitudeWindow) reset() {
	w.head = 0
	w.count = 0
	w.sum = 0
}

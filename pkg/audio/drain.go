package audio

// Drain reads from ch until the channel is closed, discarding all values.
// Use it to keep a producer from backing up on a channel nobody reads
// anymore, e.g. a capture device's frame channel after the consumer loop
// has exited but before the device is closed.
func Drain[T any](ch <-chan T) {
	for range ch {
	}
}

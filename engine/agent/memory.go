package agent

import "github.com/periplon/metis/engine/config"

// windowHistory applies mem's strategy to history (spec.md §4.3.2): Full
// returns up to max_messages, SlidingWindow returns the last window
// messages, FirstLast concatenates the first `first` and last `last`
// messages, deduplicating the overlap if the two ranges intersect.
func windowHistory(history []Message, mem config.MemoryConfig) []Message {
	switch mem.Strategy {
	case config.MemorySlidingWindow:
		return lastN(history, mem.Window)
	case config.MemoryFirstLast:
		return firstLast(history, mem.First, mem.Last)
	default:
		if mem.MaxMessages > 0 && len(history) > mem.MaxMessages {
			return history[len(history)-mem.MaxMessages:]
		}
		return history
	}
}

func lastN(history []Message, n int) []Message {
	if n <= 0 || n >= len(history) {
		return history
	}
	return history[len(history)-n:]
}

func firstLast(history []Message, first, last int) []Message {
	if first <= 0 && last <= 0 {
		return history
	}
	if first >= len(history) {
		return history
	}
	head := history[:min(first, len(history))]
	tailStart := len(history) - last
	if tailStart < len(head) {
		tailStart = len(head)
	}
	tail := history[tailStart:]
	out := make([]Message, 0, len(head)+len(tail))
	out = append(out, head...)
	out = append(out, tail...)
	return out
}

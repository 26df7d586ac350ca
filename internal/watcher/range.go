package watcher

// blockRange is an inclusive range of blocks queried with one eth_getLogs call.
type blockRange struct {
	from uint64
	to   uint64
}

// catchUpRanges covers next..head in windows of at most batch blocks. It
// returns nothing when the head has not advanced past next.
func catchUpRanges(next, head, batch uint64) []blockRange {
	if head < next || batch == 0 {
		return nil
	}
	out := make([]blockRange, 0, (head-next)/batch+1)
	for from := next; from <= head; {
		to := head
		if head-from >= batch {
			to = from + batch - 1
		}
		out = append(out, blockRange{from: from, to: to})
		if to == head {
			break
		}
		from = to + 1
	}
	return out
}

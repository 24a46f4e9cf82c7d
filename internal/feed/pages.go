package feed

// FetchRequest is the fetch plan for one (head, page) pair.
type FetchRequest struct {
	// Seq orders requests issued by a Controller; only the latest is published.
	Seq     uint64
	Head    uint64
	Page    int
	Heights []uint64
}

// ComputeRange returns the offsets below head covered by page, as the
// half-open interval [start, end). Page 1 covers offsets 0..pageSize-1.
// The range does not depend on head; Heights applies it to a head.
func ComputeRange(page, pageSize int) (start, end uint64) {
	end = uint64(page) * uint64(pageSize)
	return end - uint64(pageSize), end
}

// MaxPage is the last page reachable for head, ceil(head/pageSize).
func MaxPage(head uint64, pageSize int) int {
	size := uint64(pageSize)
	return int((head + size - 1) / size)
}

// Heights lists the absolute heights of page in descending order. Offsets
// reaching below genesis are left out.
func Heights(head uint64, page, pageSize int) []uint64 {
	if head == 0 || page < 1 || pageSize < 1 {
		return nil
	}
	start, end := ComputeRange(page, pageSize)
	heights := make([]uint64, 0, pageSize)
	for offset := start; offset < end && offset <= head; offset++ {
		heights = append(heights, head-offset)
	}
	return heights
}

// Plan derives the fetch plan for (head, page). The caller assigns Seq.
func Plan(head uint64, page, pageSize int) FetchRequest {
	return FetchRequest{
		Head:    head,
		Page:    page,
		Heights: Heights(head, page, pageSize),
	}
}

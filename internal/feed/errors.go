package feed

import "fmt"

// HeadFetchError reports a failed head poll. The last good head is kept.
type HeadFetchError struct {
	Err error
}

func (e *HeadFetchError) Error() string {
	return fmt.Sprintf("failed to fetch chain head: %v", e.Err)
}

func (e *HeadFetchError) Unwrap() error {
	return e.Err
}

// BlockFetchError reports a block left out of a page because it could not be fetched.
type BlockFetchError struct {
	Height uint64
	Err    error
}

func (e *BlockFetchError) Error() string {
	return fmt.Sprintf("failed to fetch block %d: %v", e.Height, e.Err)
}

func (e *BlockFetchError) Unwrap() error {
	return e.Err
}

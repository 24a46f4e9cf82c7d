package blockfeed

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifest-network/blockfeed/internal/feed"
)

type commandKind int

const (
	cmdNext commandKind = iota
	cmdPrevious
	cmdToggleBlock
	cmdToggleTransaction
	cmdRefresh
	cmdQuit
)

type command struct {
	kind  commandKind
	block int
	tx    int
}

// parseCommand reads one line typed in the watch view.
func parseCommand(line string) (command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return command{kind: cmdRefresh}, nil
	}

	switch fields[0] {
	case "n", "next":
		return command{kind: cmdNext}, nil
	case "p", "prev", "previous":
		return command{kind: cmdPrevious}, nil
	case "q", "quit", "exit":
		return command{kind: cmdQuit}, nil
	case "b", "block":
		if len(fields) != 2 {
			return command{}, fmt.Errorf("usage: b <block index>")
		}
		i, err := strconv.Atoi(fields[1])
		if err != nil {
			return command{}, fmt.Errorf("invalid block index %q", fields[1])
		}
		return command{kind: cmdToggleBlock, block: i}, nil
	case "t", "tx":
		if len(fields) != 3 {
			return command{}, fmt.Errorf("usage: t <block index> <transaction index>")
		}
		i, err := strconv.Atoi(fields[1])
		if err != nil {
			return command{}, fmt.Errorf("invalid block index %q", fields[1])
		}
		j, err := strconv.Atoi(fields[2])
		if err != nil {
			return command{}, fmt.Errorf("invalid transaction index %q", fields[2])
		}
		return command{kind: cmdToggleTransaction, block: i, tx: j}, nil
	default:
		return command{}, fmt.Errorf("unknown command %q", fields[0])
	}
}

// apply runs cmd against the controller and returns a message for the user
// when the command had no effect.
func apply(c *feed.Controller, cmd command) string {
	switch cmd.kind {
	case cmdNext:
		if !c.NextPage() {
			return "Already on the oldest page"
		}
	case cmdPrevious:
		if !c.PreviousPage() {
			return "Already on the latest page"
		}
	case cmdToggleBlock:
		if !c.ToggleBlockExpand(cmd.block) {
			return fmt.Sprintf("No block %d on this page", cmd.block)
		}
	case cmdToggleTransaction:
		if !c.ToggleTransactionExpand(cmd.block, cmd.tx) {
			return fmt.Sprintf("No transaction %d in block %d", cmd.tx, cmd.block)
		}
	}
	return ""
}

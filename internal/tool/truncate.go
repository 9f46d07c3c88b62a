package tool

import (
	"fmt"
	"strings"
)

type TruncationStrategy string

const (
	TruncHeadTail TruncationStrategy = "head_tail"
	TruncTail     TruncationStrategy = "tail"
)

// OutputLimit bounds what one invocation may send back to the model.
type OutputLimit struct {
	MaxChars int
	MaxLines int
	Strategy TruncationStrategy
}

var DefaultOutputLimit = OutputLimit{MaxChars: 20_000, Strategy: TruncHeadTail}

func truncate(toolName, callID, full string, isErr bool, lim OutputLimit) Result {
	out := truncateChars(full, lim.MaxChars, lim.Strategy)
	if lim.MaxLines > 0 {
		out = truncateLines(out, lim.MaxLines)
	}
	return Result{
		ToolName:   toolName,
		CallID:     callID,
		Output:     out,
		FullOutput: full,
		IsError:    isErr,
	}
}

func truncateChars(s string, max int, strat TruncationStrategy) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	removed := len(s) - max
	if strat == TruncTail {
		return fmt.Sprintf("[output truncated: first %d characters removed]\n\n", removed) + s[len(s)-max:]
	}
	head := max / 2
	tail := max - head
	marker := fmt.Sprintf("\n\n[output truncated: %d characters removed from the middle; re-run with narrower parameters to see them]\n\n", removed)
	return s[:head] + marker + s[len(s)-tail:]
}

func truncateLines(s string, max int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= max {
		return s
	}
	head := max / 2
	tail := max - head
	omitted := len(lines) - head - tail
	return strings.Join(lines[:head], "\n") +
		fmt.Sprintf("\n[... %d lines omitted ...]\n", omitted) +
		strings.Join(lines[len(lines)-tail:], "\n")
}

package main

import (
	"fmt"
	"os/exec"
	"runtime"
	"sort"

	"github.com/atotto/clipboard"
)

func cellKey(row, col int) string {
	return fmt.Sprintf("%d-%d", row, col)
}

func sortInts(s []int) {
	sort.Ints(s)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// readClipboardText prefers pbpaste on macOS, which handles plain-text
// conversion of rich clipboard content better than the generic path.
func readClipboardText() (string, error) {
	if runtime.GOOS == "darwin" {
		if output, err := exec.Command("pbpaste", "-Prefer", "txt").Output(); err == nil {
			return string(output), nil
		}
		if output, err := exec.Command("pbpaste").Output(); err == nil {
			return string(output), nil
		}
	}
	return clipboard.ReadAll()
}

func writeClipboardText(text string) error {
	return clipboard.WriteAll(text)
}

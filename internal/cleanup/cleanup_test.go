package cleanup

import (
	"errors"
	"strings"
	"testing"
)

func TestRunAll_ReverseOrderAndErrors(t *testing.T) {
	var order []string
	Register("log file", func() error {
		order = append(order, "log file")
		return errors.New("close failed")
	})
	Register("nil", nil)
	Register("provider", func() error {
		order = append(order, "provider")
		return nil
	})

	err := RunAll()
	if err == nil || !strings.Contains(err.Error(), "log file: close failed") {
		t.Fatalf("RunAll() error = %v", err)
	}
	if len(order) != 2 || order[0] != "provider" || order[1] != "log file" {
		t.Fatalf("order = %v", order)
	}
	if err := RunAll(); err != nil {
		t.Fatalf("hooks must be cleared after RunAll, got %v", err)
	}
}

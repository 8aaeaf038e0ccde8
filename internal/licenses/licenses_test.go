package licenses

import (
	"strings"
	"testing"
)

func TestEmbeddedTexts(t *testing.T) {
	if !strings.Contains(NoticesText(), "github.com/spf13/cobra") {
		t.Fatalf("notices missing cobra entry")
	}
	if !strings.Contains(DisclaimerText(), "[TL Err") {
		t.Fatalf("disclaimer should name the placeholder markers")
	}
}

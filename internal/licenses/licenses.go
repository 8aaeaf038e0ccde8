// Package licenses holds the texts shipped inside the binary.
package licenses

import _ "embed"

//go:embed embedded/THIRD_PARTY_NOTICES.md
var noticesText string

//go:embed embedded/DISCLAIMER.md
var disclaimerText string

func NoticesText() string {
	return noticesText
}

func DisclaimerText() string {
	return disclaimerText
}

package asset

import (
	"bytes"
	_ "embed"
)

// Bouncing ball, 96x72 pixels (48x24 cells), 120 frames at 30 fps
//
//go:embed demo.bwa
var demoData []byte

// Demo returns the embedded demo animation
func Demo() (*Animation, error) {
	return Read(bytes.NewReader(demoData))
}

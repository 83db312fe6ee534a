package render

import "unicode/utf8"

// glyphs maps a 6-bit cell pattern to its display rune.
// Bit layout within a cell:
//
//	0 1
//	2 3
//	4 5
//
// Sextants U+1FB00..U+1FB3B fill every pattern except the four with a
// dedicated block character: 0 (space), 21 (left half), 42 (right half), 63 (full).
var glyphs = [64]rune{
	' ', '\U0001FB00', '\U0001FB01', '\U0001FB02', '\U0001FB03', '\U0001FB04', '\U0001FB05', '\U0001FB06', // 0-7
	'\U0001FB07', '\U0001FB08', '\U0001FB09', '\U0001FB0A', '\U0001FB0B', '\U0001FB0C', '\U0001FB0D', '\U0001FB0E', // 8-15
	'\U0001FB0F', '\U0001FB10', '\U0001FB11', '\U0001FB12', '\U0001FB13', '\u258C', '\U0001FB14', '\U0001FB15', // 16-23
	'\U0001FB16', '\U0001FB17', '\U0001FB18', '\U0001FB19', '\U0001FB1A', '\U0001FB1B', '\U0001FB1C', '\U0001FB1D', // 24-31
	'\U0001FB1E', '\U0001FB1F', '\U0001FB20', '\U0001FB21', '\U0001FB22', '\U0001FB23', '\U0001FB24', '\U0001FB25', // 32-39
	'\U0001FB26', '\U0001FB27', '\u2590', '\U0001FB28', '\U0001FB29', '\U0001FB2A', '\U0001FB2B', '\U0001FB2C', // 40-47
	'\U0001FB2D', '\U0001FB2E', '\U0001FB2F', '\U0001FB30', '\U0001FB31', '\U0001FB32', '\U0001FB33', '\U0001FB34', // 48-55
	'\U0001FB35', '\U0001FB36', '\U0001FB37', '\U0001FB38', '\U0001FB39', '\U0001FB3A', '\U0001FB3B', '\u2588', // 56-63
}

// glyphBytes holds the UTF-8 encoding of each glyph
var glyphBytes [64][]byte

func init() {
	for i, r := range glyphs {
		glyphBytes[i] = utf8.AppendRune(nil, r)
	}
}

// Glyph returns the rune for a cell pattern; only the low six bits are used
func Glyph(pattern uint8) rune {
	return glyphs[pattern&0x3F]
}

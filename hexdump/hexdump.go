// Package hexdump renders byte buffers as annotated hex dumps, with
// optional highlighting of a matched window.
package hexdump

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/Moonlight-Companies/gologger/coloransi"
)

// Options controls the hex dump layout and coloring.
type Options struct {
	// BytesPerLine is the number of bytes displayed per line.
	BytesPerLine int

	// ShowASCII adds the ASCII column.
	ShowASCII bool

	// ShowOffset adds the offset/address column.
	ShowOffset bool

	// StartOffset is the address printed for the first byte.
	StartOffset uint64

	// OffsetWidth is the width of the offset column in hex digits.
	OffsetWidth int

	// HighlightStart and HighlightEnd select a byte window
	// [HighlightStart, HighlightEnd) to highlight, typically the
	// decode window of a match. Equal values disable highlighting.
	HighlightStart int
	HighlightEnd   int

	// NoColor suppresses all ANSI escapes.
	NoColor bool

	OffsetColor       coloransi.ColorCode
	HexColor          coloransi.ColorCode
	ASCIIColor        coloransi.ColorCode
	NonPrintableColor coloransi.ColorCode
	ZeroColor         coloransi.ColorCode
	HighlightColor    coloransi.ColorCode
	HighlightBack     coloransi.ColorCode
}

// DefaultOptions returns the default hex dump options.
func DefaultOptions() Options {
	return Options{
		BytesPerLine:      16,
		ShowASCII:         true,
		ShowOffset:        true,
		OffsetWidth:       8,
		OffsetColor:       coloransi.Cyan,
		HexColor:          coloransi.Green,
		ASCIIColor:        coloransi.White,
		NonPrintableColor: coloransi.BrightBlack,
		ZeroColor:         coloransi.BrightBlack,
		HighlightColor:    coloransi.Yellow,
		HighlightBack:     coloransi.Black,
	}
}

// Dump renders data with the given options.
func Dump(data []byte, options Options) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// DumpContext renders the bytes around a match: context bytes before
// and after the window [matchOff, matchOff+matchLen), with the window
// highlighted and addresses relative to startAddr. noColor suppresses
// ANSI escapes.
func DumpContext(data []byte, matchOff, matchLen, context int, startAddr uint64, noColor bool) string {
	lo := matchOff - context
	if lo < 0 {
		lo = 0
	}
	hi := matchOff + matchLen + context
	if hi > len(data) {
		hi = len(data)
	}

	options := DefaultOptions()
	options.StartOffset = startAddr + uint64(lo)
	options.HighlightStart = matchOff - lo
	options.HighlightEnd = matchOff - lo + matchLen
	options.NoColor = noColor

	return Dump(data[lo:hi], options)
}

// DumpToWriter writes a hex dump of data to writer.
func DumpToWriter(writer io.Writer, data []byte, options Options) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}
	if options.OffsetWidth <= 0 {
		options.OffsetWidth = 8
	}

	for offset := 0; offset < len(data); offset += options.BytesPerLine {
		end := offset + options.BytesPerLine
		if end > len(data) {
			end = len(data)
		}
		formatLine(writer, data[offset:end], offset, options)
	}
}

func formatLine(writer io.Writer, line []byte, lineStart int, options Options) {
	if options.ShowOffset {
		offsetStr := fmt.Sprintf("%0"+strconv.Itoa(options.OffsetWidth)+"x", options.StartOffset+uint64(lineStart))
		fmt.Fprint(writer, paint(options, options.OffsetColor, offsetStr), "  ")
	}

	for i := range line {
		if i > 0 {
			fmt.Fprint(writer, " ")
		}
		fmt.Fprint(writer, hexByte(line[i], lineStart+i, options))
	}

	if options.ShowASCII {
		// Pad short final lines so the ASCII column stays aligned.
		if missing := options.BytesPerLine - len(line); missing > 0 {
			fmt.Fprint(writer, strings.Repeat("   ", missing))
		}
		fmt.Fprint(writer, " | ")
		for i, b := range line {
			fmt.Fprint(writer, asciiByte(b, lineStart+i, options))
		}
	}

	fmt.Fprintln(writer)
}

func hexByte(b byte, pos int, options Options) string {
	value := fmt.Sprintf("%02x", b)
	if highlighted(pos, options) {
		return paintOn(options, options.HighlightColor, options.HighlightBack, value)
	}
	if b == 0 {
		return paint(options, options.ZeroColor, value)
	}
	return paint(options, options.HexColor, value)
}

func asciiByte(b byte, pos int, options Options) string {
	c := "."
	color := options.NonPrintableColor
	if b == 0 {
		color = options.ZeroColor
	} else if unicode.IsPrint(rune(b)) {
		c = string(rune(b))
		color = options.ASCIIColor
	}
	if highlighted(pos, options) {
		return paintOn(options, options.HighlightColor, options.HighlightBack, c)
	}
	return paint(options, color, c)
}

func highlighted(pos int, options Options) bool {
	return pos >= options.HighlightStart && pos < options.HighlightEnd
}

func paint(options Options, fg coloransi.ColorCode, s string) string {
	if options.NoColor {
		return s
	}
	return coloransi.Foreground(fg, s)
}

func paintOn(options Options, fg, bg coloransi.ColorCode, s string) string {
	if options.NoColor {
		return s
	}
	return coloransi.Color(fg, bg, s)
}

package output

import (
	"io"
	"os"

	"github.com/mdp/qrterminal/v3"
	"golang.org/x/term"
	"rsc.io/qr"
)

// CanRenderQR reports whether w is a terminal suitable for block
// graphics.
func CanRenderQR(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// RenderQR draws a compact QR code for data on the terminal. On a
// non-terminal writer it silently draws nothing; the caller prints the
// plain address either way.
func RenderQR(w io.Writer, data string) error {
	if !CanRenderQR(w) {
		return nil
	}

	qrterminal.GenerateWithConfig(data, qrterminal.Config{
		// Low error correction keeps the code small; an address is
		// re-scannable if misread.
		Level:          qr.L,
		Writer:         w,
		QuietZone:      1,
		HalfBlocks:     true,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
	})
	return nil
}

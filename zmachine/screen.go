package zmachine

// TextStyle is the bitmask set_text_style mutates. §4.H, §12 ("TextStyle
// as a bitmask"), grounded on the teacher's zmachine/screen.go and the
// Rust reference's equivalent style bits in traits.rs.
type TextStyle uint8

const (
	StyleRoman        TextStyle = 0
	StyleReverseVideo TextStyle = 1 << 0
	StyleBold         TextStyle = 1 << 1
	StyleItalic       TextStyle = 1 << 2
	StyleFixedPitch   TextStyle = 1 << 3
)

// Colour enumerates the Z-machine's 2..15 colour palette plus the two
// pseudo-colours 0 (current) and 1 (default). §4.H set_colour.
type Colour uint8

const (
	ColourCurrent     Colour = 0
	ColourDefault     Colour = 1
	ColourBlack       Colour = 2
	ColourRed         Colour = 3
	ColourGreen       Colour = 4
	ColourYellow      Colour = 5
	ColourBlue        Colour = 6
	ColourMagenta     Colour = 7
	ColourCyan        Colour = 8
	ColourWhite       Colour = 9
	ColourLightGrey   Colour = 10
	ColourMediumGrey  Colour = 11
	ColourDarkGrey    Colour = 12
	ColourTransparent Colour = 15
)

// window identifies the upper (status/split) or lower (main) text window.
// v6's graphical window model is explicitly out of scope (§1); only the
// two windows v3-v5/v8 know about exist here.
type window uint8

const (
	windowLower window = 0
	windowUpper window = 1
)

// ScreenModel is the core's in-memory mirror of window, cursor, colour
// and style state. Per §12 (grounded on traits.rs's UI trait and the
// teacher's screen.go, which already tracks this), the core owns this
// state and opcodes mutate it directly; the host is only ever asked to
// render, never to compute cursor position or active style.
type ScreenModel struct {
	Current window

	UpperWindowHeight  int
	UpperCursorX       int
	UpperCursorY       int
	LowerCursorX       int
	LowerCursorY       int
	BufferedLower      bool // buffer_mode: word-wrap the lower window
	Style              TextStyle
	Foreground         Colour
	Background         Colour
	DefaultForeground  Colour
	DefaultBackground  Colour
}

func newScreenModel(defaultFG, defaultBG Colour) ScreenModel {
	return ScreenModel{
		Current:           windowLower,
		BufferedLower:     true,
		Foreground:        defaultFG,
		Background:        defaultBG,
		DefaultForeground: defaultFG,
		DefaultBackground: defaultBG,
		UpperCursorX:      1,
		UpperCursorY:      1,
	}
}

func colourFromHeaderByte(b uint8, fallback Colour) Colour {
	if b == 0 {
		return fallback
	}
	return Colour(b)
}

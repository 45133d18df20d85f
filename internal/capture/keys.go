package capture

import "strings"

// truncatedKeysyms maps the four-byte prefixes that arrive on the wire back
// to the X keysym names they were cut from.
var truncatedKeysyms = map[string]string{
	"Retu": "Return",
	"Ente": "Return",
	"Esca": "Escape",
	"Back": "BackSpace",
	"Dele": "Delete",
	"Spac": "space",
	"Righ": "Right",
	"Left": "Left",
	"Up":   "Up",
	"Down": "Down",
	"Home": "Home",
	"End":  "End",
	"Tab":  "Tab",
	"Page": "Page_Down",
	"Inse": "Insert",
	" ":    "space",
}

// keysym returns the xdotool key name for a key received from a client.
// Single printable characters pass through unchanged.
func keysym(key string) string {
	key = strings.TrimRight(key, "\x00")
	if key == "" {
		return ""
	}
	if name, ok := truncatedKeysyms[key]; ok {
		return name
	}
	if len(key) >= 2 && key[0] == 'F' && key[1] >= '1' && key[1] <= '9' {
		return key
	}
	if len([]rune(key)) == 1 {
		return key
	}
	return ""
}

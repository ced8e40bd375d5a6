package display

import (
	"io"

	"github.com/fatih/color"
)

// PrintBanner prints the ASCII art banner in bold magenta (plain when colors
// are disabled).
func PrintBanner(w io.Writer, version string) {
	c := color.New(color.FgHiMagenta, color.Bold)
	c.Fprint(w, ` __  __ _       _ __  __            _
|  \/  (_)_ __ (_)  \/  | __ _ _ __| | _____ _ __
| |\/| | | '_ \| | |\/| |/ _`+"`"+` | '__| |/ / _ \ '__|
| |  | | | | | | | |  | | (_| | |  |   <  __/ |
|_|  |_|_|_| |_|_|_|  |_|\__,_|_|  |_|\_\___|_|
`)
	color.New(color.Faint).Fprintf(w, "size-targeted media compression v%s\n\n", version)
}

package display

import (
	"fmt"
	"os"

	"github.com/backmassage/transcode-driver/internal/term"
)

// PrintBanner prints the startup banner, colored magenta when colors are
// enabled. [term.Configure] must be called first.
func PrintBanner() {
	if term.Enabled() {
		fmt.Fprint(os.Stdout, term.Magenta)
	}
	fmt.Fprint(os.Stdout, ` _                            _        _      _      _
| |_ _ __ __ _ _ __  ___  ___ ___   __| |_ __ (_)_  _(_)___ ___
| __| '__/ _` + "`" + ` | '_ \/ __|/ _ / _` + "`" + ` | '__| | \ \/ / / _ \/ __|
| |_| | | (_| | | | \__ \ (_| (_| | |    | |>  <| |  __/\__ \
 \__|_|  \__,_|_| |_|___/\___\__,_|_|    |_/_/\_\_|\___||___/
`)
	if term.Enabled() {
		fmt.Fprintln(os.Stdout, term.NC)
	}
}

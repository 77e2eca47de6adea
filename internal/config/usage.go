package config

import (
	"flag"
	"fmt"
)

// setCustomUsage replaces the default flag usage with one that groups the
// flags and lists the environment variables.
func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage: %s [flags]\n\n", fs.Name())
		fmt.Fprintln(out, "Benchmarks and cross-checks the amix mixing-rule kernel strategies.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Flags:")
		fs.PrintDefaults()
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Every flag can also be set through %s<NAME> (e.g. %sN=50,100, %sNO_COLOR=1).\n",
			EnvPrefix, EnvPrefix, EnvPrefix)
		fmt.Fprintln(out, "Exit codes: 0 ok, 1 error, 2 timeout, 3 mismatch, 4 config, 130 canceled.")
	}
}

// Command utamc is a thin demonstration of package compile's Driver: read a
// page-object JSON document and either print the generated source or the
// diagnostic bundle. The full CLI (file discovery, watch mode, project
// configuration, SARIF output) is out of scope per spec.md §1/§6; this is
// only the minimal collaborator the spec says such a CLI would sit on top
// of.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/utamc/utamc/compile"
	"goa.design/clue/log"
)

func main() {
	strict := flag.Bool("strict", false, "report unknown fields as note diagnostics")
	machine := flag.Bool("json", false, "render diagnostics as machine-readable JSON")
	debug := flag.Bool("debug", false, "trace pipeline stages to stderr")
	flag.Parse()

	var ctx context.Context
	if *debug {
		ctx = log.Context(context.Background(), log.WithFormat(log.FormatTerminal), log.WithDebug())
	}

	origin := "<stdin>"
	var r io.Reader = os.Stdin
	if flag.NArg() > 0 {
		origin = flag.Arg(0)
		f, err := os.Open(origin)
		if err != nil {
			fatal(err)
		}
		defer f.Close()
		r = f
	}

	text, err := io.ReadAll(r)
	if err != nil {
		fatal(err)
	}

	res := compile.Compile(string(text), origin, compile.Options{Strict: *strict, Context: ctx})
	if !res.OK() {
		if *machine {
			out, err := res.Diagnostics.RenderMachine()
			if err != nil {
				fatal(err)
			}
			fmt.Fprintln(os.Stderr, string(out))
		} else {
			fmt.Fprint(os.Stderr, res.Diagnostics.RenderHuman())
		}
		os.Exit(2)
	}

	fmt.Print(res.Text)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "utamc:", err)
	os.Exit(1)
}

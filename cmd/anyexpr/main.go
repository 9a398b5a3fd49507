package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"

	"github.com/zephyrtronium/anyexpr"
)

func main() {
	log.SetFlags(0)
	var (
		inname, constname, verb string
		with                    [][2]string
		nl, echo                bool
		prec                    int
	)
	addwith := func(s string) error {
		nm, vl, err := given(s)
		if err != nil {
			return err
		}
		with = append(with, [2]string{nm, vl})
		return nil
	}
	flag.StringVar(&inname, "in", "", "input file (default stdin if no args given)")
	flag.StringVar(&constname, "constants", "", "YAML file of constant definitions")
	flag.StringVar(&verb, "fmt", env.Str("ANYEXPR_FMT", "%g"), "result formatting string for numbers")
	flag.Func("given", "name=value constant definition (any number of times)", addwith)
	flag.IntVar(&prec, "p", env.Int("ANYEXPR_PREC", 64), "precision of calculations in bits")
	flag.BoolVar(&nl, "n", false, "parse separate input lines as separate expressions")
	flag.BoolVar(&echo, "echo", false, "print parse trees")
	flag.Parse()
	if prec <= 0 {
		log.Fatalf("precision (%d) must be positive", prec)
	}

	consts := make(map[string]any)
	if constname != "" {
		f, err := os.Open(constname)
		if err != nil {
			log.Fatal(err)
		}
		m, err := loadConstants(f)
		f.Close()
		if err != nil {
			log.Fatalf("reading %s: %v", constname, err)
		}
		for k, v := range m {
			consts[k] = v
		}
	}
	for _, d := range with {
		v, err := evalGiven(d[1], consts, uint(prec))
		if err != nil {
			log.Fatalf("setting %s: %v", d[0], err)
		}
		consts[d[0]] = v
	}

	calc := calculator{
		out:    os.Stdout,
		consts: consts,
		prec:   uint(prec),
		verb:   verb,
		echo:   echo,
		cache:  anyexpr.NewCache(0),
	}
	if inname == "" && flag.NArg() == 0 && interactive(os.Stdin) {
		calc.prompt = "> "
		nl = true
	}
	f, err := infile(inname, flag.NArg() == 0)
	if err != nil {
		log.Fatal(err)
	}
	if f != nil {
		if err := calc.read(f, nl); err != nil {
			log.Fatal(err)
		}
	}
	for _, arg := range flag.Args() {
		calc.eval(arg)
	}
}

// given splits a name=value definition.
func given(s string) (name, value string, err error) {
	d := strings.SplitN(s, "=", 2)
	if len(d) != 2 || strings.TrimSpace(d[0]) == "" {
		return "", "", fmt.Errorf(`constant definitions must be "name=value", not %q`, s)
	}
	return strings.TrimSpace(d[0]), strings.TrimSpace(d[1]), nil
}

// evalGiven evaluates the value of a -given definition using the constants
// defined so far.
func evalGiven(src string, consts map[string]any, prec uint) (any, error) {
	e, err := anyexpr.Parse(src, anyexpr.Constants(consts), anyexpr.Prec(prec))
	if err != nil {
		return nil, err
	}
	return e.Evaluate()
}

// loadConstants reads a YAML mapping of constant names to values.
func loadConstants(r io.Reader) (map[string]any, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// calculator evaluates expressions and prints their results.
type calculator struct {
	out    io.Writer
	consts map[string]any
	prec   uint
	verb   string
	echo   bool
	prompt string
	cache  *anyexpr.Cache
}

// read evaluates the expressions in r, either each line separately or all
// of it as one.
func (c *calculator) read(r io.Reader, lines bool) error {
	if !lines {
		b, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) != "" {
			c.eval(string(b))
		}
		return nil
	}
	sc := bufio.NewScanner(r)
	fmt.Fprint(c.out, c.prompt)
	for sc.Scan() {
		if src := sc.Text(); strings.TrimSpace(src) != "" {
			c.eval(src)
		}
		fmt.Fprint(c.out, c.prompt)
	}
	if c.prompt != "" {
		fmt.Fprintln(c.out)
	}
	return sc.Err()
}

// eval evaluates one expression and prints its result or error.
func (c *calculator) eval(src string) {
	e, err := anyexpr.Parse(src, anyexpr.Constants(c.consts), anyexpr.Prec(c.prec), anyexpr.WithCache(c.cache))
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	if c.echo {
		fmt.Fprintf(c.out, "%v : ", e)
	}
	r, err := e.Evaluate()
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	fmt.Fprintln(c.out, c.format(r))
}

// format formats a result. Numbers use the calculator's verb, strings are
// quoted, and everything else uses %v.
func (c *calculator) format(r any) string {
	switch r := r.(type) {
	case float64:
		return fmt.Sprintf(c.verb, r)
	case string:
		return fmt.Sprintf("%q", r)
	case nil:
		return "nil"
	default:
		return fmt.Sprintf("%v", r)
	}
}

// interactive reports whether f is a terminal.
func interactive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func infile(inname string, std bool) (io.Reader, error) {
	switch {
	case inname != "" && inname != "-":
		f, err := os.Open(inname)
		if err != nil {
			return nil, err
		}
		return bufio.NewReader(f), nil
	case inname == "-", std:
		return bufio.NewReader(os.Stdin), nil
	}
	return nil, nil
}

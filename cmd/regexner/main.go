// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command regexner quotes RegexNER rule files so their patterns match
// literally, or validates that rule files compile.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ManuGH/nlpd/internal/regexner"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var (
	errUsage = errors.New("usage")
	// errFailed reports that at least one file failed; details were already written.
	errFailed = errors.New("one or more files failed")
)

type options struct {
	inFiles    []string
	outFile    string
	mappings   []string
	ignoreCase bool
	engine     string
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.Execute()
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "Error: %v\n\n%s", err, root.UsageString())
		return exitUsage
	case errors.Is(err, errFailed):
		return exitFailure
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "regexner --in-file FILE [--out-file FILE] | --mapping FILE [--ignore-case] [--engine rules|corenlp]",
		Short: "Quote or validate RegexNER rule files",
		Long: "With --in-file, every pattern in the first tab field of each line is rewritten as a literal and the\n" +
			"result is written to --out-file (default: the input path plus " + regexner.DefaultSuffix + ").\n" +
			"With --mapping, the rule files are parsed and every pattern is checked against --engine:\n" +
			"  rules    RE2, the in-process backend. Lookaround, backreferences, atomic groups and possessive\n" +
			"           quantifiers are reported as unsupported.\n" +
			"  corenlp  java.util.regex on a CoreNLP server. RE2-only syntax such as (?P<name>) is reported.\n" +
			"           Patterns using Java-only constructs are not parsed further.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%w: unexpected arguments %q", errUsage, args)
			}
			return nil
		},
		RunE: func(*cobra.Command, []string) error {
			switch {
			case len(o.inFiles) > 0:
				if o.outFile != "" && len(o.inFiles) > 1 {
					return fmt.Errorf("%w: --out-file needs exactly one --in-file", errUsage)
				}
				return quote(o, stdout, stderr)
			case len(o.mappings) > 0:
				if !validEngine(o.engine) {
					return fmt.Errorf("%w: --engine must be one of %v", errUsage, regexner.Engines)
				}
				return validate(o, stdout, stderr)
			default:
				return fmt.Errorf("%w: --in-file or --mapping is required", errUsage)
			}
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	fl := cmd.Flags()
	fl.StringArrayVarP(&o.inFiles, "in-file", "i", nil, "rule file to quote (repeatable)")
	fl.StringVarP(&o.outFile, "out-file", "o", "", "output path for a single --in-file")
	fl.StringArrayVarP(&o.mappings, "mapping", "m", nil, "rule file to validate (repeatable)")
	fl.BoolVar(&o.ignoreCase, "ignore-case", false, "compile patterns case-insensitively")
	fl.StringVar(&o.engine, "engine", string(regexner.EngineRules), "pattern dialect to validate against: rules or corenlp")
	return cmd
}

// quote processes every input file, reporting failures and moving on.
func quote(o options, stdout, stderr io.Writer) error {
	failed := 0
	for _, in := range o.inFiles {
		out := regexner.OutputPath(in, o.outFile)
		n, err := regexner.QuoteFile(in, out, prefixed(stderr, in))
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", in, err)
			failed++
			continue
		}
		fmt.Fprintf(stdout, "%s -> %s (%d lines)\n", in, out, n)
	}
	if failed > 0 {
		return errFailed
	}
	return nil
}

func validEngine(name string) bool {
	for _, e := range regexner.Engines {
		if string(e) == name {
			return true
		}
	}
	return false
}

func validate(o options, stdout, stderr io.Writer) error {
	mappings, err := regexner.Load(o.mappings...)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return errFailed
	}

	engine := regexner.Engine(o.engine)
	if problems := regexner.Check(mappings, engine); len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintln(stderr, p)
		}
		fmt.Fprintf(stderr, "%d pattern(s) rejected for engine %s\n", len(problems), engine)
		return errFailed
	}

	if engine == regexner.EngineRules {
		if _, err := regexner.Compile(mappings, o.ignoreCase); err != nil {
			fmt.Fprintln(stderr, err)
			return errFailed
		}
	}
	fmt.Fprintf(stdout, "%d rules OK (%s)\n", len(mappings), engine)
	return nil
}

// prefixWriter labels warning lines with the file they came from.
type prefixWriter struct {
	w      io.Writer
	prefix string
}

func prefixed(w io.Writer, file string) io.Writer {
	return prefixWriter{w: w, prefix: file + ": "}
}

func (p prefixWriter) Write(b []byte) (int, error) {
	if _, err := io.WriteString(p.w, p.prefix); err != nil {
		return 0, err
	}
	return p.w.Write(b)
}

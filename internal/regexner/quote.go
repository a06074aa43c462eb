// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package regexner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/renameio/v2"
)

// DefaultSuffix is appended to the input path when no output path is given.
const DefaultSuffix = ".quoted"

// QuotePattern returns a pattern that matches p literally. The \Q...\E form
// is understood by both RE2 and Java regular expressions.
func QuotePattern(p string) string {
	return `\Q` + strings.ReplaceAll(p, `\E`, `\E\\E\Q`) + `\E`
}

// QuoteLine quotes every space separated element of the first tab field and
// leaves the remaining fields untouched. warning is true when the line has
// more than MaxFields fields; the line is still quoted. Empty elements from
// repeated spaces stay empty and trailing empty fields are kept and counted,
// so the output keeps the input's layout byte for byte outside the patterns.
func QuoteLine(line string) (quoted string, warning bool) {
	if line == "" {
		return "", false
	}
	fields := strings.Split(line, "\t")
	warning = len(fields) > MaxFields

	elems := strings.Split(fields[0], " ")
	for i, e := range elems {
		if e != "" {
			elems[i] = QuotePattern(e)
		}
	}
	fields[0] = strings.Join(elems, " ")
	return strings.Join(fields, "\t"), warning
}

// QuoteReader copies r to w line by line through QuoteLine. Lines with too
// many fields are reported on warn as "Line N" (1-based) when warn is not
// nil. It returns the number of lines written.
func QuoteReader(r io.Reader, w io.Writer, warn io.Writer) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	bw := bufio.NewWriter(w)

	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSuffix(sc.Text(), "\r")
		q, tooLong := QuoteLine(line)
		if tooLong && warn != nil {
			_, _ = fmt.Fprintf(warn, "Unexpected line longer than %d tokens: Line %d\n", MaxFields, n)
		}
		if _, err := bw.WriteString(q); err != nil {
			return n, err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return n, err
		}
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("read: %w", err)
	}
	return n, bw.Flush()
}

// OutputPath returns out, or in+DefaultSuffix when out is empty.
func OutputPath(in, out string) string {
	if out != "" {
		return out
	}
	return in + DefaultSuffix
}

// QuoteFile quotes the rule file at in into out (see OutputPath). The
// output appears atomically: a failed run leaves no partial file behind.
func QuoteFile(in, out string, warn io.Writer) (lines int, err error) {
	if in == "" {
		return 0, errors.New("regexner: empty input path")
	}
	out = OutputPath(in, out)

	src, err := os.Open(in) // #nosec G304 -- operator supplied path
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", in, err)
	}
	defer func() { _ = src.Close() }()

	pf, err := renameio.NewPendingFile(out, renameio.WithPermissions(0o644))
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", out, err)
	}
	defer func() { _ = pf.Cleanup() }()

	lines, err = QuoteReader(src, pf, warn)
	if err != nil {
		return lines, fmt.Errorf("quote %s: %w", in, err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return lines, fmt.Errorf("commit %s: %w", out, err)
	}
	return lines, nil
}

package cookies

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Header is written at the top of every encoded cookie file.
const Header = "# Netscape HTTP Cookie File\n" +
	"# https://curl.se/docs/http-cookies.html\n" +
	"# This is a generated file! Do not edit.\n\n"

const httpOnlyPrefix = "#HttpOnly_"

// ErrCorrupt is returned when a cookie file cannot be decoded.
var ErrCorrupt = errors.New("corrupt cookie file")

// Decode reads a Netscape cookie file. Comment and blank lines are skipped.
// A non-comment line that does not hold exactly seven tab-separated fields,
// or carries an unparsable boolean or expiry, makes the whole file corrupt.
func Decode(r io.Reader) (*Jar, error) {
	jar := NewJar()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		httpOnly := false
		if strings.HasPrefix(line, httpOnlyPrefix) {
			line = strings.TrimPrefix(line, httpOnlyPrefix)
			httpOnly = true
		}
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c, err := decodeLine(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrCorrupt, lineNo, err)
		}
		c.HTTPOnly = httpOnly
		jar.Set(c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return jar, nil
}

func decodeLine(line string) (Cookie, error) {
	parts := strings.Split(line, "\t")
	if len(parts) != 7 {
		return Cookie{}, fmt.Errorf("want 7 fields, got %d", len(parts))
	}
	sub, err := parseBool(parts[1])
	if err != nil {
		return Cookie{}, fmt.Errorf("includeSubdomains: %w", err)
	}
	secure, err := parseBool(parts[3])
	if err != nil {
		return Cookie{}, fmt.Errorf("secure: %w", err)
	}
	exp, err := strconv.ParseInt(strings.TrimSpace(parts[4]), 10, 64)
	if err != nil {
		return Cookie{}, fmt.Errorf("expiry: %w", err)
	}
	return Cookie{
		Domain:            parts[0],
		IncludeSubdomains: sub,
		Path:              parts[2],
		Secure:            secure,
		Expires:           exp,
		Name:              parts[5],
		Value:             parts[6],
	}, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRUE":
		return true, nil
	case "FALSE":
		return false, nil
	}
	return false, fmt.Errorf("bad boolean %q", s)
}

func formatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// Encode writes jar in Netscape format, header first.
func Encode(w io.Writer, jar *Jar) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(Header); err != nil {
		return err
	}
	for _, c := range jar.Cookies() {
		if c.HTTPOnly {
			bw.WriteString(httpOnlyPrefix)
		}
		fmt.Fprintf(bw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			c.Domain, formatBool(c.IncludeSubdomains), c.Path, formatBool(c.Secure),
			c.Expires, c.Name, c.Value)
	}
	return bw.Flush()
}

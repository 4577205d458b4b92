// Package credentials persists the session cookies and the derived
// authentication token between runs. The on-disk format is the Netscape
// cookie-file format used by libcurl, which the wrapped service's own web
// client reads and writes; it is an external contract and must not change.
package credentials

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// TokenCookieName is the record under which the client-derived session token
// is stored alongside the server-issued cookies.
const TokenCookieName = "token"

// Cookie is a single record of the credential blob.
// Field order follows http://www.cookiecentral.com/faq/#3.5
type Cookie struct {
	Domain            string
	IncludeSubdomains bool
	Path              string
	Secure            bool
	Expires           int64 // epoch seconds, 0 for a session cookie
	Name              string
	Value             string
}

// Expired reports whether the cookie's expiry has passed. Session cookies
// (Expires == 0) never expire on disk.
func (c Cookie) Expired(now time.Time) bool {
	return c.Expires > 0 && c.Expires <= now.Unix()
}

// Set is a named collection of cookies, keyed by cookie name.
type Set map[string]Cookie

// Get returns the named cookie.
func (s Set) Get(name string) (Cookie, bool) {
	c, ok := s[name]
	return c, ok
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Store persists a cookie set for one account identity.
type Store interface {
	// Load returns the persisted set, or an empty set when nothing has been
	// persisted yet.
	Load() (Set, error)
	// Save replaces the persisted set.
	Save(Set) error
	// Delete removes the persisted set. Deleting a store that holds nothing
	// is not an error.
	Delete() error
}

const fileHeader = `# Netscape HTTP Cookie File
# http://curl.haxx.se/docs/http-cookies.html
# This file was generated by libcurl! Edit at your own risk.

`

// ParseSet reads a Netscape-format cookie file. Blank lines and #-prefixed
// comment lines are ignored, as are records that do not carry exactly seven
// tab-separated fields.
func ParseSet(r io.Reader) (Set, error) {
	set := Set{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			continue
		}
		expires, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			continue
		}
		cookie := Cookie{
			Domain:            fields[0],
			IncludeSubdomains: fields[1] == "TRUE",
			Path:              fields[2],
			Secure:            fields[3] == "TRUE",
			Expires:           expires,
			Name:              fields[5],
			Value:             fields[6],
		}
		set[cookie.Name] = cookie
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "[ParseSet] scanning cookie file")
	}
	return set, nil
}

// WriteSet serializes the set in Netscape format. Records are written in
// name order so repeated saves of the same set are byte-identical.
func WriteSet(w io.Writer, set Set) error {
	if _, err := io.WriteString(w, fileHeader); err != nil {
		return errors.Wrap(err, "[WriteSet] writing header")
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := set[name]
		record := strings.Join([]string{
			c.Domain,
			boolField(c.IncludeSubdomains),
			c.Path,
			boolField(c.Secure),
			strconv.FormatInt(c.Expires, 10),
			c.Name,
			c.Value,
		}, "\t")
		if _, err := fmt.Fprintln(w, record); err != nil {
			return errors.Wrap(err, "[WriteSet] writing record")
		}
	}
	return nil
}

func boolField(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

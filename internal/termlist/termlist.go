// Package termlist parses newline-delimited search term lists for bulk
// import.
package termlist

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Parse reads a newline-delimited list of search terms. Each line is
// trimmed; blank lines and lines already seen earlier in the list are
// silently skipped.
func Parse(r io.Reader) ([]string, error) {
	var terms []string
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		term := strings.TrimSpace(scanner.Text())
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read term list: %w", err)
	}
	return terms, nil
}

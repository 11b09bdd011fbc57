// Package wordlist loads custom word lists for words mode.
package wordlist

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
)

// LoadWords reads one word per line, skipping blanks and # comments.
// Words rejected by keep are dropped and duplicates keep their first position.
func LoadWords(path string, keep FilterFunc) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if keep != nil && !keep(line) {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	words = lo.Uniq(words)
	if len(words) == 0 {
		return nil, fmt.Errorf("word list %s has no usable words", path)
	}
	return words, nil
}

// Package wordlist provides the word list used for scripted typing.
package wordlist

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"strings"
)

//go:embed words.txt
var defaultWords string

// Default returns the embedded English word list.
func Default() []string {
	words, err := LoadWords(strings.NewReader(defaultWords))
	if err != nil {
		panic(fmt.Sprintf("embedded word list: %v", err))
	}
	return words
}

// LoadWords reads one word per line, skipping blank lines.
func LoadWords(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}

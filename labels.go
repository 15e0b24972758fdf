package crosscount

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadLabels reads the labels used to train the Model from the given text file.
// It should contain one label per line.
func LoadLabels(file string) ([]string, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)

	var labels []string

	// read and trim each line, blank lines are skipped so a trailing newline
	// does not create an empty class
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		labels = append(labels, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return labels, nil
}

// Labels is an ordered list of class names indexed by the class number the
// detector reports
type Labels []string

// Name returns the class name for the given index.  The second return value
// is false when the index is outside the label list
func (l Labels) Name(idx int) (string, bool) {
	if idx < 0 || idx >= len(l) {
		return "", false
	}
	return l[idx], true
}

// Index returns the class index of the given label name, or -1 if the label
// is not in the list
func (l Labels) Index(name string) int {
	for i, s := range l {
		if s == name {
			return i
		}
	}
	return -1
}

// Contains reports if the label name exists in the list
func (l Labels) Contains(name string) bool {
	return l.Index(name) >= 0
}

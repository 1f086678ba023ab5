package promo

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// mapCodeSet implements CodeSet using a map for O(1) lookups.
type mapCodeSet struct {
	codes map[string]struct{}
}

// NewMapCodeSet creates a map-based code set.
func NewMapCodeSet(codes ...string) CodeSet {
	s := &mapCodeSet{
		codes: make(map[string]struct{}, len(codes)),
	}
	for _, c := range codes {
		s.add(c)
	}
	return s
}

func (s *mapCodeSet) Contains(code string) bool {
	_, exists := s.codes[code]
	return exists
}

func (s *mapCodeSet) Size() int {
	return len(s.codes)
}

func (s *mapCodeSet) add(code string) {
	s.codes[code] = struct{}{}
}

// readCodeSet reads one code per line, trimming blanks. Cancellation is
// checked every 100k lines.
func readCodeSet(ctx context.Context, r io.Reader) (CodeSet, error) {
	set := &mapCodeSet{codes: make(map[string]struct{})}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lines := 0
	for scanner.Scan() {
		if lines%100_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		lines++

		if code := strings.TrimSpace(scanner.Text()); code != "" {
			set.add(code)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read code list: %w", err)
	}

	return set, nil
}

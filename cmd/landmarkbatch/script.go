package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"landmark-picker/internal/landmark"
	"landmark-picker/pkg/geometry"
)

// click is one scripted click in view coordinates.
type click struct {
	Line  int
	Image landmark.ImageRef
	At    geometry.Point
}

// parseScript reads one click per line as "F x y" or "M x y". Blank lines
// and lines starting with # are skipped.
func parseScript(r io.Reader) ([]click, error) {
	var clicks []click
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected \"F|M x y\", got %q", lineNo, line)
		}

		var ref landmark.ImageRef
		switch strings.ToUpper(fields[0]) {
		case "F":
			ref = landmark.Fixed
		case "M":
			ref = landmark.Moving
		default:
			return nil, fmt.Errorf("line %d: unknown image %q (want F or M)", lineNo, fields[0])
		}

		x, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad x: %w", lineNo, err)
		}
		y, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad y: %w", lineNo, err)
		}
		clicks = append(clicks, click{Line: lineNo, Image: ref, At: geometry.Pt(x, y)})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return clicks, nil
}

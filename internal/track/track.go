// Package track reads and writes the plain-text tracking-curve format
// and hands the core fully validated (name, points) pairs. The core
// never parses files itself.
//
// The format is block-per-curve:
//
//	curve_name
//	point_count
//	frame x y [status]
//	...
//
// Blocks repeat for multi-curve files. Status defaults to normal.
package track

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/semmlerino/curveditor/internal/curve"
)

// Data is one parsed curve block.
type Data struct {
	Name   string
	Points []curve.Point
}

// LoadFile parses every curve block in a file.
func LoadFile(path string) ([]Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// Parse reads curve blocks until EOF. Input with duplicate or unsorted
// frames is rejected with a descriptive error; the caller is the one
// who must sort.
func Parse(r io.Reader) ([]Data, error) {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	next := func() (string, bool) {
		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			return line, true
		}
		return "", false
	}

	var out []Data
	for {
		name, ok := next()
		if !ok {
			break
		}
		countLine, ok := next()
		if !ok {
			return nil, fmt.Errorf("line %d: curve %q: missing point count", lineNo, name)
		}
		count, err := strconv.Atoi(countLine)
		if err != nil || count < 0 {
			return nil, fmt.Errorf("line %d: curve %q: bad point count %q", lineNo, name, countLine)
		}
		points := make([]curve.Point, 0, count)
		for i := 0; i < count; i++ {
			line, ok := next()
			if !ok {
				return nil, fmt.Errorf("line %d: curve %q: expected %d points, got %d", lineNo, name, count, i)
			}
			p, err := parsePoint(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: curve %q: %w", lineNo, name, err)
			}
			points = append(points, p)
		}
		if err := curve.ValidatePoints(points); err != nil {
			return nil, fmt.Errorf("curve %q: %w", name, err)
		}
		out = append(out, Data{Name: name, Points: points})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parsePoint(line string) (curve.Point, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return curve.Point{}, fmt.Errorf("point line needs frame, x, y: %q", line)
	}
	frame, err := strconv.Atoi(fields[0])
	if err != nil {
		return curve.Point{}, fmt.Errorf("bad frame %q", fields[0])
	}
	x, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return curve.Point{}, fmt.Errorf("bad x %q", fields[1])
	}
	y, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return curve.Point{}, fmt.Errorf("bad y %q", fields[2])
	}
	p := curve.Point{Frame: frame, X: x, Y: y, Status: curve.StatusNormal}
	if len(fields) >= 4 {
		status, err := curve.ParseStatus(fields[3])
		if err != nil {
			return curve.Point{}, err
		}
		p.Status = status
	}
	return p, nil
}

// SaveFile writes curve blocks to a file.
func SaveFile(path string, data []Data) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := Write(w, data); err != nil {
		return err
	}
	return w.Flush()
}

// Write emits curve blocks in the same format Parse reads.
func Write(w io.Writer, data []Data) error {
	for _, d := range data {
		if _, err := fmt.Fprintf(w, "%s\n%d\n", d.Name, len(d.Points)); err != nil {
			return err
		}
		for _, p := range d.Points {
			if _, err := fmt.Fprintf(w, "%d %g %g %s\n", p.Frame, p.X, p.Y, p.Status); err != nil {
				return err
			}
		}
	}
	return nil
}

// FormatPoints renders points as tab-separated "frame\tx\ty" lines,
// the shape spreadsheet tools paste cleanly.
func FormatPoints(points []curve.Point) string {
	var b strings.Builder
	for _, p := range points {
		fmt.Fprintf(&b, "%d\t%g\t%g\n", p.Frame, p.X, p.Y)
	}
	return b.String()
}

// CopyPoints places the points on the system clipboard.
func CopyPoints(points []curve.Point) error {
	return clipboard.WriteAll(FormatPoints(points))
}

package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zyedidia/generic/mapset"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/tilepath/internal/geo"
)

// ErrMalformedDeclaration is returned for declaration lines that cannot be parsed.
var ErrMalformedDeclaration = errors.New("malformed transport declaration")

// FileExt is the extension of declaration files.
const FileExt = ".tsv"

// Declaration columns. The object column names what the action is used on
// and only matters to a client that performs the move.
const (
	colOrigin = iota
	colDestination
	colAction
	colRequirements
	colObject
	colPrerequisites
	colWait
	colComment
)

// FileName returns the well-known declaration file name of a category.
func FileName(c Category) string {
	return c.String() + FileExt
}

// LoadDir loads the declaration file of every category found in dir.
// Missing files are skipped; a malformed file fails the whole load.
func LoadDir(ctx context.Context, dir string) (*Set, error) {
	var parsed [CategoryCount][]*Transport

	g, ctx := errgroup.WithContext(ctx)
	for c := range CategoryCount {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ts, err := LoadFile(filepath.Join(dir, FileName(c)), c)
			if errors.Is(err, fs.ErrNotExist) {
				slog.Debug("transport file not found, skipping", "category", c, "dir", dir)
				return nil
			}
			if err != nil {
				return err
			}
			parsed[c] = ts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading transports from %s: %w", dir, err)
	}

	// Merge in category order so the result does not depend on scheduling.
	set := NewSet()
	for _, ts := range parsed {
		for _, t := range ts {
			set.Add(t)
		}
	}

	slog.Info("transports loaded", "count", set.Len(), "origins", set.Origins(), "dir", dir)
	return set, nil
}

// LoadFile parses one declaration file.
func LoadFile(path string, category Category) ([]*Transport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return Parse(f, category, filepath.Base(path))
}

// Parse reads declarations of one category from r. name is used in errors.
//
// Edge declarations are tab separated:
//
//	origin <TAB> destination <TAB> action <TAB> requirements <TAB> object <TAB> prerequisites <TAB> wait <TAB> comment
//
// where positions are "x y level", requirements are "level Skill" pairs
// separated by ';' and prerequisites are names separated by ';'. Trailing
// columns may be omitted. A column starting with '"' is a comment and holds no
// value for its position. An action that reads as a requirement list is
// rejected, since it means the requirements are in the wrong column.
// Network categories list one member position per line instead.
func Parse(r io.Reader, category Category, name string) ([]*Transport, error) {
	var (
		out     []*Transport
		members []geo.Point
	)

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		if category.IsNetwork() {
			p, err := parseNetworkMember(line)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", name, lineNo, err)
			}
			members = append(members, p)
			continue
		}

		t, err := parseEdge(line, category)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
		out = append(out, t)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	if category.IsNetwork() {
		out = append(out, ExpandNetwork(members, category)...)
	}
	return out, nil
}

// ExpandNetwork links every member to every other member. Each link departs
// from the four tiles adjacent to its source member.
func ExpandNetwork(members []geo.Point, category Category) []*Transport {
	cardinals := [...]geo.Direction{geo.West, geo.East, geo.South, geo.North}

	var out []*Transport
	for _, a := range members {
		for _, b := range members {
			if a == b {
				continue
			}
			for _, d := range cardinals {
				dx, dy := d.Delta()
				origin := a.Offset(dx, dy)
				if !origin.Valid() {
					continue
				}
				out = append(out, New(origin, b, category, 0))
			}
		}
	}
	return out
}

func parseEdge(line string, category Category) (*Transport, error) {
	cols := strings.Split(line, "\t")
	if len(cols) < 2 {
		return nil, fmt.Errorf("%w: need origin and destination, got %d column(s)", ErrMalformedDeclaration, len(cols))
	}

	origin, err := ParsePoint(cols[colOrigin])
	if err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	destination, err := ParsePoint(cols[colDestination])
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}

	t := New(origin, destination, category, 0)
	for i := colAction; i < len(cols); i++ {
		col := strings.TrimSpace(cols[i])
		if strings.HasPrefix(col, `"`) {
			t.Comment = strings.Trim(col, `"`)
			continue
		}

		switch i {
		case colAction:
			if looksLikeRequirements(col) {
				return nil, fmt.Errorf("%w: action %q is a requirement list", ErrMalformedDeclaration, col)
			}
			t.Action = col
		case colRequirements:
			if err := parseRequirements(col, t.Skills); err != nil {
				return nil, err
			}
		case colObject:
			t.Object = col
		case colPrerequisites:
			parsePrerequisites(col, t.Prerequisites)
		case colWait:
			if col == "" {
				continue
			}
			wait, err := strconv.Atoi(col)
			if err != nil || wait < 0 {
				return nil, fmt.Errorf("%w: bad wait %q", ErrMalformedDeclaration, col)
			}
			t.Wait = wait
		case colComment:
			t.Comment = col
		}
	}
	return t, nil
}

// looksLikeRequirements reports whether the first ';' item of col is a
// "level Skill" pair.
func looksLikeRequirements(col string) bool {
	first, _, _ := strings.Cut(col, ";")
	parts := strings.Fields(first)
	if len(parts) != 2 {
		return false
	}
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return false
	}
	_, ok := ParseSkill(parts[1])
	return ok
}

// parseRequirements reads "level Skill;level Skill".
func parseRequirements(col string, into map[Skill]int) error {
	for _, req := range strings.Split(col, ";") {
		req = strings.TrimSpace(req)
		if req == "" {
			continue
		}
		parts := strings.Fields(req)
		if len(parts) != 2 {
			return fmt.Errorf("%w: bad requirement %q", ErrMalformedDeclaration, req)
		}
		level, err := strconv.Atoi(parts[0])
		if err != nil || level < 0 {
			return fmt.Errorf("%w: bad level in requirement %q", ErrMalformedDeclaration, req)
		}
		skill, ok := ParseSkill(parts[1])
		if !ok {
			return fmt.Errorf("%w: unknown skill %q", ErrMalformedDeclaration, parts[1])
		}
		into[skill] = level
	}
	return nil
}

func parsePrerequisites(col string, into mapset.Set[string]) {
	for _, name := range strings.Split(col, ";") {
		if name = strings.TrimSpace(name); name != "" {
			into.Put(name)
		}
	}
}

// parseNetworkMember reads "x y level" with an optional trailing code.
func parseNetworkMember(line string) (geo.Point, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return geo.InvalidPoint, fmt.Errorf("%w: bad network member %q", ErrMalformedDeclaration, line)
	}
	return ParsePoint(strings.Join(fields[:3], " "))
}

// ParsePoint reads a position written as "x y level".
func ParsePoint(s string) (geo.Point, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return geo.InvalidPoint, fmt.Errorf("%w: bad position %q", ErrMalformedDeclaration, s)
	}
	var v [3]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return geo.InvalidPoint, fmt.Errorf("%w: bad position %q", ErrMalformedDeclaration, s)
		}
		v[i] = n
	}
	p := geo.Pack(v[0], v[1], v[2])
	if !p.Valid() {
		return geo.InvalidPoint, fmt.Errorf("%w: position %q out of range", ErrMalformedDeclaration, s)
	}
	return p, nil
}

// Package reports stores generated reports as timestamped text files.
package reports

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	headerPrefix    = "Report generated at: "
	headerLayout    = "2006-01-02 15:04:05.000000"
	fileStampLayout = "2006-01-02_15-04-05"
)

var ErrNoReports = errors.New("no reports found")

type Report struct {
	Name        string    `json:"name"`
	Path        string    `json:"-"`
	GeneratedAt time.Time `json:"generated_at"`
	Body        string    `json:"body"`
}

// Header is the first line of the report file.
func (r *Report) Header() string {
	return headerPrefix + r.GeneratedAt.Format(headerLayout)
}

// Content is the file text: the header line, a blank line, then the body.
func (r *Report) Content() string {
	return r.Header() + "\n\n" + r.Body
}

type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string { return s.dir }

// Write persists body as a new report. If a report with the same second
// already exists a numeric suffix is added rather than overwriting it.
func (s *Store) Write(now time.Time, body string) (*Report, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating reports dir: %w", err)
	}
	r := &Report{GeneratedAt: now, Body: body}
	stem := "report-" + now.Format(fileStampLayout)

	for i := 0; ; i++ {
		name := stem + ".txt"
		if i > 0 {
			name = fmt.Sprintf("%s-%d.txt", stem, i)
		}
		path := filepath.Join(s.dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("creating report: %w", err)
		}
		_, werr := f.WriteString(r.Content())
		cerr := f.Close()
		if werr != nil {
			return nil, fmt.Errorf("writing report: %w", werr)
		}
		if cerr != nil {
			return nil, fmt.Errorf("closing report: %w", cerr)
		}
		r.Name, r.Path = name, path
		return r, nil
	}
}

// List returns report names, newest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "report-") && strings.HasSuffix(e.Name(), ".txt") {
			names = append(names, e.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		si, ni := splitName(names[i])
		sj, nj := splitName(names[j])
		if si != sj {
			return si > sj
		}
		return ni > nj
	})
	return names, nil
}

// splitName returns the timestamp part of a report name and its collision suffix.
func splitName(name string) (string, int) {
	stem := strings.TrimSuffix(strings.TrimPrefix(name, "report-"), ".txt")
	if len(stem) <= len(fileStampLayout) {
		return stem, 0
	}
	n, _ := strconv.Atoi(strings.TrimPrefix(stem[len(fileStampLayout):], "-"))
	return stem[:len(fileStampLayout)], n
}

// Latest returns the newest report.
func (s *Store) Latest() (*Report, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrNoReports
	}
	return s.Read(names[0])
}

// Read loads a report by file name.
func (s *Store) Read(name string) (*Report, error) {
	if name != filepath.Base(name) || !strings.HasPrefix(name, "report-") {
		return nil, fmt.Errorf("invalid report name %q", name)
	}
	path := filepath.Join(s.dir, name)
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoReports
		}
		return nil, fmt.Errorf("reading report: %w", err)
	}
	r := &Report{Name: name, Path: path}
	header, body, _ := strings.Cut(string(b), "\n\n")
	if ts, ok := strings.CutPrefix(header, headerPrefix); ok {
		if t, err := time.ParseInLocation(headerLayout, ts, time.Local); err == nil {
			r.GeneratedAt = t
		}
		r.Body = body
	} else {
		r.Body = string(b)
	}
	return r, nil
}

package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ValentinKolb/kvbase/lib/catalog"
	"github.com/ValentinKolb/kvbase/lib/core"
	"github.com/ValentinKolb/kvbase/lib/db"
	"github.com/ValentinKolb/kvbase/lib/locking"
	gometrics "github.com/rcrowley/go-metrics"
	"gopkg.in/yaml.v3"
)

func catalogOf(s *core.Session) (*catalog.FSCatalog, error) {
	cat := s.Context().Catalog()
	if cat == nil {
		return nil, fmt.Errorf("no database catalog configured")
	}
	return cat, nil
}

// --------------------------------------------------------------------------
// Info
// --------------------------------------------------------------------------

// Info output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// DatabaseInfo is the information printed by Info.
type DatabaseInfo struct {
	db.Metadata `json:",inline" yaml:",inline"`

	Keys  int `json:"keys" yaml:"keys"`   // -1 if the engine cannot count
	Scope int `json:"scope" yaml:"scope"` // resources the session is narrowed to
	Pins  int `json:"pins" yaml:"pins"`
}

type keyCounter interface {
	Keys() (int, error)
}

// Info prints the metadata of the open database.
type Info struct {
	Format string // FormatText (default), FormatJSON or FormatYAML
}

func (c *Info) Name() string   { return "info" }
func (c *Info) String() string { return "info" }

func (c *Info) Validate() error {
	switch c.Format {
	case "", FormatText, FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("invalid format %q (expected one of text, json, yaml)", c.Format)
	}
}

func (c *Info) Databases(lr *locking.LockResult) {
	lr.Read.Add(locking.Context)
}

func (c *Info) Run(s *core.Session, r *Result) error {
	h := s.Current()
	if h == nil {
		return db.NoDatabase()
	}

	info := DatabaseInfo{Metadata: h.Meta(), Keys: -1, Scope: h.Resources().Len()}
	if s.Scope() != nil {
		info.Scope = len(s.Scope())
	}
	info.Pins, _ = s.Context().Registry().Pins(h.Name())
	if kc, ok := h.Engine().(keyCounter); ok {
		if n, err := kc.Keys(); err == nil {
			info.Keys = n
		}
	}

	switch c.Format {
	case FormatJSON:
		raw, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		r.Output = append(r.Output, string(raw))
	case FormatYAML:
		raw, err := yaml.Marshal(info)
		if err != nil {
			return err
		}
		r.Output = append(r.Output, strings.TrimRight(string(raw), "\n"))
	default:
		r.print("Name:      %s", info.Name)
		r.print("Version:   %d", info.Version)
		r.print("Created:   %s", info.Created.Format("2006-01-02 15:04:05"))
		r.print("Modified:  %s", info.Modified.Format("2006-01-02 15:04:05"))
		r.print("Size:      %d bytes", info.Size)
		r.print("Resources: %d (%d in scope)", info.Resources, info.Scope)
		if info.Keys >= 0 {
			r.print("Keys:      %d", info.Keys)
		}
		r.print("Pins:      %d", info.Pins)
		r.print("Legacy:    %v", info.Legacy)
		r.print("Corrupt:   %v", info.Corrupt)
	}
	return nil
}

// --------------------------------------------------------------------------
// List
// --------------------------------------------------------------------------

// List prints the names of all databases of the catalog.
type List struct{}

func (c *List) Name() string   { return "list" }
func (c *List) String() string { return "list" }

func (c *List) Databases(lr *locking.LockResult) {
	lr.Read.Add(locking.Context)
}

func (c *List) Run(s *core.Session, r *Result) error {
	cat, err := catalogOf(s)
	if err != nil {
		return err
	}
	names, err := cat.List()
	if err != nil {
		return err
	}

	reg := s.Context().Registry()
	for _, name := range names {
		if pins, ok := reg.Pins(name); ok {
			r.print("%s (opened, pins=%d)", name, pins)
		} else {
			r.print("%s", name)
		}
	}
	r.Info = fmt.Sprintf("%d database(s)", len(names))
	return nil
}

// --------------------------------------------------------------------------
// Stats
// --------------------------------------------------------------------------

// Stats prints the registry metrics and the command latencies.
type Stats struct{}

func (c *Stats) Name() string   { return "stats" }
func (c *Stats) String() string { return "stats" }

func (c *Stats) Databases(lr *locking.LockResult) {
	lr.Read.Add(locking.Context)
}

func (c *Stats) Run(s *core.Session, r *Result) error {
	var buf bytes.Buffer
	s.Context().Registry().Metrics().WritePrometheus(&buf)
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line != "" {
			r.Output = append(r.Output, line)
		}
	}

	timers := map[string]gometrics.Timer{}
	s.Context().Timers().Each(func(name string, m interface{}) {
		if t, ok := m.(gometrics.Timer); ok {
			timers[name] = t.Snapshot()
		}
	})
	names := make([]string, 0, len(timers))
	for name := range timers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := timers[name]
		r.print("%-8s count=%d mean=%.2fms p99=%.2fms", name, t.Count(), t.Mean()/1e6, t.Percentile(0.99)/1e6)
	}
	return nil
}

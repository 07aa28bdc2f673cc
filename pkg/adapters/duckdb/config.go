package duckdb

import (
	"fmt"
	"sort"
	"strings"
)

// Params holds DuckDB session configuration taken from the target options.
type Params struct {
	// Extensions to install and load (e.g., "httpfs", "json"), from the
	// comma separated "extensions" option.
	Extensions []string

	// Settings applied with SET (e.g., memory_limit, threads): every other option.
	Settings map[string]string
}

// ParseParams splits target options into extensions and settings.
func ParseParams(options map[string]string) *Params {
	p := &Params{}
	for k, v := range options {
		if k == "extensions" {
			for _, ext := range strings.Split(v, ",") {
				if ext = strings.TrimSpace(ext); ext != "" {
					p.Extensions = append(p.Extensions, ext)
				}
			}
			continue
		}
		if p.Settings == nil {
			p.Settings = make(map[string]string)
		}
		p.Settings[k] = v
	}
	return p
}

// Statements returns the statements that apply p to a new connection.
func (p *Params) Statements() []string {
	var stmts []string
	for _, ext := range p.Extensions {
		stmts = append(stmts, "INSTALL "+ext, "LOAD "+ext)
	}
	keys := make([]string, 0, len(p.Settings))
	for k := range p.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stmts = append(stmts, fmt.Sprintf("SET %s = '%s'", k, strings.ReplaceAll(p.Settings[k], "'", "''")))
	}
	return stmts
}

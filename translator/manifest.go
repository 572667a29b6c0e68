package translator

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// commandMetadataFile is the on-disk shape of the command-metadata
// manifest: a list of psql meta-command matchers tried in declared
// order. encoding/json is the right tool here — this is a narrow,
// load-once config file, not the kind of multi-source layered
// configuration spf13/viper exists to solve.
type commandMetadataFile struct {
	Commands []struct {
		InputPattern  string   `json:"input_pattern"`
		OutputPattern string   `json:"output_pattern"`
		MatcherArray  []string `json:"matcher_array"`
	} `json:"commands"`
}

// queryRewriteEntry is one entry of the query-rewrites manifest file.
type queryRewriteEntry struct {
	InputPattern  string `json:"input_pattern"`
	OutputPattern string `json:"output_pattern"`
}

// LoadCommandMetadata reads and compiles a command-metadata JSON file
// into an ordered list of Matchers.
func LoadCommandMetadata(path string) ([]Matcher, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read command metadata file: %w", err)
	}
	var f commandMetadataFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse command metadata file: %w", err)
	}
	matchers := make([]Matcher, 0, len(f.Commands))
	for i, c := range f.Commands {
		re, err := regexp.Compile(c.InputPattern)
		if err != nil {
			return nil, fmt.Errorf("command metadata entry %d: compile input_pattern: %w", i, err)
		}
		order, err := parseGroupOrder(c.MatcherArray)
		if err != nil {
			return nil, fmt.Errorf("command metadata entry %d: %w", i, err)
		}
		matchers = append(matchers, Matcher{
			InputPattern:  re,
			OutputPattern: c.OutputPattern,
			GroupOrder:    order,
		})
	}
	return matchers, nil
}

// LoadQueryRewrites reads and compiles a query-rewrites JSON file into
// an ordered list of Rewrites.
func LoadQueryRewrites(path string) ([]Rewrite, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query rewrites file: %w", err)
	}
	var entries []queryRewriteEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse query rewrites file: %w", err)
	}
	rewrites := make([]Rewrite, 0, len(entries))
	for i, e := range entries {
		re, err := regexp.Compile(e.InputPattern)
		if err != nil {
			return nil, fmt.Errorf("query rewrite entry %d: compile input_pattern: %w", i, err)
		}
		rewrites = append(rewrites, Rewrite{InputPattern: re, OutputPattern: e.OutputPattern})
	}
	return rewrites, nil
}

func parseGroupOrder(raw []string) ([]int, error) {
	order := make([]int, len(raw))
	for i, s := range raw {
		n := 0
		for _, c := range s {
			if c < '0' || c > '9' {
				return nil, fmt.Errorf("matcher_array entry %q is not a capture-group index", s)
			}
			n = n*10 + int(c-'0')
		}
		order[i] = n
	}
	return order, nil
}

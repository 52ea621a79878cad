package pool

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of the proxy list
type File struct {
	Proxies []Identity `yaml:"proxies"`
}

// Load reads identities from a YAML file and a comma separated URL list.
// A missing file is not an error.
func Load(path, urls string) ([]Identity, error) {
	var out []Identity

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			var f File
			if err := yaml.Unmarshal(data, &f); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			out = append(out, f.Proxies...)
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	for _, raw := range strings.Split(urls, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		out = append(out, Identity{ProxyURL: raw})
	}

	seen := make(map[string]bool, len(out))
	for i := range out {
		id := &out[i]
		id.Name = strings.TrimSpace(id.Name)
		id.ProxyURL = strings.TrimSpace(id.ProxyURL)
		if id.ProxyURL != "" {
			u, err := url.Parse(id.ProxyURL)
			if err != nil || u.Host == "" {
				return nil, fmt.Errorf("invalid proxy url for %q", id.Name)
			}
		}
		if id.Name == "" {
			continue
		}
		if seen[id.Name] {
			return nil, fmt.Errorf("duplicate proxy name %q", id.Name)
		}
		seen[id.Name] = true
	}

	// unnamed entries get the first free proxy-N
	next := 1
	for i := range out {
		if out[i].Name != "" {
			continue
		}
		for seen[fmt.Sprintf("proxy-%d", next)] {
			next++
		}
		out[i].Name = fmt.Sprintf("proxy-%d", next)
		seen[out[i].Name] = true
	}
	return out, nil
}

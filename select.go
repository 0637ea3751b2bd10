// ABOUTME: Non-interactive driver selection
// ABOUTME: Matches the -driver flag against discovered drivers by identifier or name
package main

import (
	"fmt"
	"strings"

	"github.com/Resonate-Protocol/asiodirect/pkg/asio"
	"github.com/Resonate-Protocol/asiodirect/pkg/asio/discovery"
)

// selectPlugin returns the driver whose class identifier equals query, or
// the first whose name contains it, ignoring case. An empty query picks
// the first driver.
func selectPlugin(plugins []discovery.Plugin, query string) (discovery.Plugin, error) {
	if len(plugins) == 0 {
		return discovery.Plugin{}, fmt.Errorf("no drivers installed")
	}
	if query == "" {
		return plugins[0], nil
	}

	if want, err := asio.ParseGUID(query); err == nil {
		for _, p := range plugins {
			if got, err := asio.ParseGUID(p.Identifier); err == nil && got == want {
				return p, nil
			}
		}
	}

	needle := strings.ToLower(query)
	for _, p := range plugins {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			return p, nil
		}
	}
	return discovery.Plugin{}, fmt.Errorf("no driver matches %q", query)
}

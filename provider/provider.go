// Package provider implements the ordered resolution waterfall across delivery providers.
//
// Providers are independent content sources with their own identifier spaces
// and unreliable availability. They are tried in strict priority order and
// never merged: providers return heterogeneous data shapes, and unioning
// partial results from several of them for a single title is unsafe.
package provider

import (
	"errors"

	"github.com/anilust-cli/anilust/key"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Provider identifies one delivery provider reachable through the relay path
// /anime/{name}/{operation}/....
type Provider struct {
	Name string
}

func (p Provider) String() string {
	return p.Name
}

// List returns the configured providers in waterfall priority order.
func List() []Provider {
	names := viper.GetStringSlice(key.ProvidersOrder)
	return lo.Map(names, func(name string, _ int) Provider {
		return Provider{Name: name}
	})
}

// ErrExhausted reports that every provider and the secondary meta-aggregation
// fallback yielded nothing usable. It is a typed "not found", distinct from
// transport failure: callers may show "no active stream" rather than an error
// banner.
var ErrExhausted = errors.New("no provider yielded a usable result")

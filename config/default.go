// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/anilust-cli/anilust/color"
	"github.com/anilust-cli/anilust/constant"
	"github.com/anilust-cli/anilust/key"
	"github.com/anilust-cli/anilust/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Anilust + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
	})
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.CatalogEndpoint, "https://graphql.anilist.co", "GraphQL endpoint of the authoritative metadata catalog")
	register(key.CatalogResyncReleasing, 4, "Hours before cached metadata of a releasing title is considered stale")
	register(key.CatalogResyncCompleted, 168, "Hours before cached metadata of a completed title is considered stale")

	register(key.RelayInstances, []string{
		"https://consumet-api-one.vercel.app",
		"https://consumet-jade-zeta.vercel.app",
		"https://c.delusionz.xyz",
		"https://api.consumet.org",
		"https://consumet.vercel.app",
		"https://consumet-jade.vercel.app",
		"https://api.amvstr.me/anime",
	}, "Redundant relay instances, tried in order until one answers")
	register(key.RelaySearchTimeout, 4000, "Timeout in milliseconds for per-title search probes against a provider")
	register(key.RelayStreamTimeout, 10000, "Timeout in milliseconds for stream manifest and episode list resolution")
	register(key.RelayMetaTimeout, 5000, "Timeout in milliseconds for the secondary meta-aggregation fallback")
	register(key.RelaySpoofTLS, false, "Send relay requests with a browser TLS fingerprint to pass anti-bot CDNs")

	register(key.ProvidersOrder, []string{"gogoanime", "zoro"}, "Delivery providers in strict priority order.\nThe waterfall stops at the first provider that yields usable data")

	register(key.PlaybackDirectWait, 7000, "Milliseconds to wait for direct playback to start before downgrading to an embedded relay")
	register(key.PlaybackPlayer, "mpv", "Media player binary used for direct manifest playback")
	register(key.PlaybackSkipIntro, true, "Automatically skip openings/endings when interval data is available")
	register(key.PlaybackCompletionPercentage, 80, "Percentage watched required to mark an episode in history (1-100)")

	register(key.HistorySaveOnWatch, true, "Persist playback progress to the localized watch history")

	register(key.SearchShowQuerySuggestions, true, "Show query suggestions when searching")
	register(key.SearchResultLimit, 20, "Limit of search results to show")

	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")

	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Enable automatic version check")

	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, nerd (nerd-font required), plain, kaomoji, squares")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))

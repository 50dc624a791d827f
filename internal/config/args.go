package config

import (
	"errors"
	"flag"
	"io"
	"strconv"
	"strings"

	"github.com/aleister1102/sitewatch/internal/common"
)

const (
	legacyDebugToken    = `\d`
	legacyIntervalToken = `\s`
	argumentTrimSet     = " \"'"
)

// Arguments holds the command line overrides. Zero values mean "not given".
type Arguments struct {
	ConfigFile     string
	URL            string
	PollIntervalMs int
	IntervalSet    bool
	Debug          bool
}

// ParseArgs parses flags followed by the legacy positional grammar:
//
//	sitewatch [flags] [URL] [\d] [\s <ms>]
//
// A single positional token is always the URL. With more tokens, \d enables
// debug mode, \s takes the next token as the interval and the first other
// token is the URL. Unknown backslash tokens are ignored.
func ParseArgs(args []string, output io.Writer) (*Arguments, error) {
	fs := flag.NewFlagSet("sitewatch", flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}

	configFile := fs.String("config", "", "Path to the YAML/JSON configuration file. If not set, searches default locations.")
	configFileAlias := fs.String("c", "", "Alias for -config")

	urlFlag := fs.String("url", "", "URL to watch (overrides config file if set)")
	urlFlagAlias := fs.String("u", "", "Alias for -url")

	intervalFlag := fs.String("interval", "", "Poll interval in milliseconds, clamped to [500, 60000]")
	intervalFlagAlias := fs.String("i", "", "Alias for -interval")

	debugFlag := fs.Bool("debug", false, "Print the fetched timestamp on every tick")
	debugFlagAlias := fs.Bool("d", false, "Alias for -debug")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, common.NewArgumentError("", err.Error())
	}

	parsed := &Arguments{
		ConfigFile: firstNonEmpty(*configFile, *configFileAlias),
		URL:        trimArgument(firstNonEmpty(*urlFlag, *urlFlagAlias)),
		Debug:      *debugFlag || *debugFlagAlias,
	}
	if interval := firstNonEmpty(*intervalFlag, *intervalFlagAlias); interval != "" {
		parsed.PollIntervalMs = ParsePollInterval(interval)
		parsed.IntervalSet = true
	}

	parseLegacyArgs(fs.Args(), parsed)

	if parsed.URL == "" && len(fs.Args()) > 0 {
		return nil, common.NewArgumentError("url", "no URL found in positional arguments")
	}
	if parsed.URL != "" && !IsHTTPURL(parsed.URL) {
		return nil, common.NewArgumentError(parsed.URL, "not an absolute http(s) URL")
	}

	return parsed, nil
}

func parseLegacyArgs(tokens []string, parsed *Arguments) {
	if len(tokens) == 0 {
		return
	}
	if len(tokens) == 1 {
		if parsed.URL == "" {
			parsed.URL = trimArgument(tokens[0])
		}
		return
	}

	expectInterval := false
	for _, token := range tokens {
		if strings.HasPrefix(token, `\`) {
			switch strings.ToLower(trimArgument(token)) {
			case legacyDebugToken:
				parsed.Debug = true
			case legacyIntervalToken:
				expectInterval = true
				continue
			}
		} else if expectInterval {
			parsed.PollIntervalMs = ParsePollInterval(token)
			parsed.IntervalSet = true
		} else if parsed.URL == "" {
			parsed.URL = trimArgument(token)
		}
		expectInterval = false
	}
}

// ParsePollInterval converts a textual millisecond value into a bounded poll
// interval. Unparseable input falls back to DefaultPollIntervalMs.
func ParsePollInterval(raw string) int {
	ms, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return DefaultPollIntervalMs
	}
	return boundPollInterval(ms)
}

// ApplyTo writes the overrides that were given onto cfg.
func (a *Arguments) ApplyTo(cfg *GlobalConfig) {
	if a == nil || cfg == nil {
		return
	}
	if a.URL != "" {
		cfg.MonitorConfig.URL = a.URL
	}
	if a.IntervalSet {
		cfg.MonitorConfig.PollIntervalMs = a.PollIntervalMs
	}
	if a.Debug {
		cfg.MonitorConfig.Debug = true
	}
}

func trimArgument(s string) string {
	return strings.Trim(s, argumentTrimSet)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Package config loads yp's runtime configuration via viper. All
// settings are overridable by YP_-prefixed environment variables; an
// optional config file (yaml/json/toml, resolved by viper) supplies
// defaults for values that are awkward to set as env vars.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config is yp's full runtime configuration, unmarshalled from viper.
type Config struct {
	// CookiesFromBrowser and CookiesFile mirror the teacher's YouTube
	// extractor knobs: at most one should be set, file taking
	// precedence over browser, per internal/metadata/ytdlp.go.
	CookiesFromBrowser string `mapstructure:"cookies_from_browser"`
	CookiesFile        string `mapstructure:"cookies_file"`

	// ChannelPrefixes are the query prefixes metadata.IsChannelReference
	// recognizes as "list this channel" instead of "search this text".
	ChannelPrefixes []string `mapstructure:"channel_prefixes"`

	// EnrichConcurrency is loaded but not read by any component:
	// enrichment always runs at the fixed concurrency of 5 set in
	// internal/metadata.
	EnrichConcurrency int `mapstructure:"enrich_concurrency"`
	SearchLimit       int `mapstructure:"search_limit"`

	// ModelURL, ModelCacheDir and ModelName locate the speech model the
	// transcription pipeline downloads on first use; the file is stored
	// as <ModelName>.bin. ChunkSeconds is loaded but not read: chunks are
	// always 30 seconds long.
	ModelURL       string `mapstructure:"model_url"`
	ModelCacheDir  string `mapstructure:"model_cache_dir"`
	ModelName      string `mapstructure:"model_name"`
	RecognizerBin  string `mapstructure:"recognizer_bin"`
	ChunkSeconds   int    `mapstructure:"chunk_seconds"`

	LogFile  string `mapstructure:"log_file"`
	LogDebug bool   `mapstructure:"log_debug"`

	// DebugAddr, when non-empty, is the loopback address obs.Server
	// binds to. Empty disables the debug server entirely.
	DebugAddr string `mapstructure:"debug_addr"`

	// MPVBinary, YtDlpBinary and FfmpegBinary are only checked for
	// presence at startup; the components themselves always spawn "mpv",
	// "yt-dlp" and "ffmpeg" from PATH.
	MPVBinary        string `mapstructure:"mpv_binary"`
	YtDlpBinary      string `mapstructure:"ytdlp_binary"`
	FfmpegBinary     string `mapstructure:"ffmpeg_binary"`
}

// Load reads configuration from (in ascending precedence) built-in
// defaults, an optional config file named "yp" on the search paths,
// and YP_-prefixed environment variables.
func Load(searchPaths ...string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("YP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("yp")
	v.SetConfigType("yaml")
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("channel_prefixes", []string{"@", "channel:"})
	v.SetDefault("enrich_concurrency", 5)
	v.SetDefault("search_limit", 25)

	v.SetDefault("model_url", "")
	v.SetDefault("model_cache_dir", "")
	v.SetDefault("model_name", "model")
	v.SetDefault("recognizer_bin", "yp-recognizer")
	v.SetDefault("chunk_seconds", 30)

	v.SetDefault("log_file", "")
	v.SetDefault("log_debug", false)
	v.SetDefault("debug_addr", "")

	v.SetDefault("mpv_binary", "mpv")
	v.SetDefault("ytdlp_binary", "yt-dlp")
	v.SetDefault("ffmpeg_binary", "ffmpeg")
}

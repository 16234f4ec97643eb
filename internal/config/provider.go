package config

import "github.com/spf13/viper"

// Provider gives key-based access to loaded settings, including keys the
// Config struct does not declare. Keys use dotted paths ("lines.encoding").
type Provider struct {
	v *viper.Viper
}

// Get returns the value at key, or def when the key is unset.
func (p *Provider) Get(key string, def any) any {
	if p == nil || p.v == nil || !p.v.IsSet(key) {
		return def
	}
	return p.v.Get(key)
}

// GetString returns the string at key, or def when the key is unset.
func (p *Provider) GetString(key, def string) string {
	if p == nil || p.v == nil || !p.v.IsSet(key) {
		return def
	}
	return p.v.GetString(key)
}

// GetInt returns the int at key, or def when the key is unset.
func (p *Provider) GetInt(key string, def int) int {
	if p == nil || p.v == nil || !p.v.IsSet(key) {
		return def
	}
	return p.v.GetInt(key)
}

// ConfigFileUsed returns the config file that was read, if any.
func (p *Provider) ConfigFileUsed() string {
	if p == nil || p.v == nil {
		return ""
	}
	return p.v.ConfigFileUsed()
}

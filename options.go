package pathtransport

import (
	"github.com/spf13/viper"

	"github.com/johnny-morrice/pathtransport/api"

	_ "github.com/johnny-morrice/pathtransport/store/bolt"
	_ "github.com/johnny-morrice/pathtransport/store/redis"
	_ "github.com/johnny-morrice/pathtransport/store/resident"
)

const DefaultPrefix = "/"

const PrefixKey = "transport.prefix"
const HostKey = "transport.host"

// PathTransport options.
type Options struct {
	// Prefix is optional.  Every record path starts with the prefix. Defaults to "/".
	Prefix string
	// Host is required unless Store is set.  Selects the store by URL scheme, as in
	// "mem://things", "bolt:///var/lib/things.db" or "redis://localhost:6379/0".
	Host string
	// Store is optional.  An open connection to use instead of dialing Host.  The
	// caller keeps ownership: PathTransport.Close leaves it open.
	Store api.Store
}

// LoadDefaults reads options from configuration.
func LoadDefaults(config *viper.Viper) Options {
	return Options{
		Prefix: config.GetString(PrefixKey),
		Host:   config.GetString(HostKey),
	}
}

// merge fills the empty fields of options from defaults.
func (options Options) merge(defaults Options) Options {
	if options.Prefix == "" {
		options.Prefix = defaults.Prefix
	}

	if options.Host == "" {
		options.Host = defaults.Host
	}

	if options.Prefix == "" {
		options.Prefix = DefaultPrefix
	}

	return options
}

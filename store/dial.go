package store

import (
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/log"
)

// Dialer opens a store for a host URL.
type Dialer func(host *url.URL) (api.Store, error)

var dialers = struct {
	sync.RWMutex
	byScheme map[string]Dialer
}{
	byScheme: map[string]Dialer{},
}

// RegisterDialer makes a backend available under a URL scheme. Backends call
// it from init.
func RegisterDialer(scheme string, dialer Dialer) {
	dialers.Lock()
	defer dialers.Unlock()
	dialers.byScheme[scheme] = dialer
}

func Schemes() []string {
	dialers.RLock()
	defer dialers.RUnlock()

	schemes := make([]string, 0, len(dialers.byScheme))
	for scheme := range dialers.byScheme {
		schemes = append(schemes, scheme)
	}

	sort.Strings(schemes)
	return schemes
}

// Dial connects to the store named by host, for example "mem://things",
// "bolt:///var/lib/things.db" or "redis://localhost:6379/0".
func Dial(host string) (api.Store, error) {
	const failMsg = "store.Dial failed"

	hostURL, err := url.Parse(host)

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	dialers.RLock()
	dialer, ok := dialers.byScheme[hostURL.Scheme]
	dialers.RUnlock()

	if !ok {
		return nil, errors.Wrapf(ErrUnknownScheme, "%s: '%s' is not one of %s", failMsg, hostURL.Scheme, strings.Join(Schemes(), ", "))
	}

	log.Info("Dialing %s store...", hostURL.Scheme)

	store, err := dialer(hostURL)

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	return store, nil
}

func IsUnknownScheme(err error) bool {
	return errors.Cause(err) == ErrUnknownScheme
}

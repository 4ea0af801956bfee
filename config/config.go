// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package config defines an interface for configuring a PhySL
// locality. This interface can be composed in multiple ways,
// allowing for layered configuration.
//
// A configuration is a set of keys (corresponding to toplevel keys
// in a YAML document). A subset of keys, defined by the package's
// AllKeys, correspond to objects that are configured by the Config
// interface. These keys may be provisioned by globally registered
// providers; the keys must be string formatted, and contain the
// (registered) name of the provider, followed by an optional comma
// and string argument. For example:
//
//	transport: rest
//
//	localities:
//	- http://host0:9000
//	- http://host1:9000
//
// configures the transport key (corresponding to Config.Transport)
// with the rest provider, which reads the peer addresses from the
// localities key. The remaining keys are plain values:
//
//	locality    this process's locality id (default 0)
//	localities  the peer base URLs, indexed by locality id
//	fetchlimit  the number of concurrent remote fetches
//	listen      the address on which a locality serves its peers
//	ratelimit   the number of fetches served per second
package config

import (
	"fmt"
	"io/ioutil"
	golog "log"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/locality"
	"github.com/grailbio/phylanx/log"
	"github.com/grailbio/phylanx/metrics"
	yaml "gopkg.in/yaml.v2"
)

// The following are the set of keys provisioned by Config.
const (
	Logger    = "logger"
	Metrics   = "metrics"
	Transport = "transport"
)

// The following are plain value keys.
const (
	LocalityID = "locality"
	Localities = "localities"
	FetchLimit = "fetchlimit"
	Listen     = "listen"
	RateLimit  = "ratelimit"
)

// AllKeys defines the order in which configuration keys are
// provisioned. Thus, providers for keys later in the list may use
// configuration provided by providers for keys earlier in the list.
var AllKeys = []string{
	Logger,
	Metrics,
	Transport,
}

// Keys is a map of string keys to configuration values.
type Keys map[string]interface{}

// A Config provides a number of methods to mint new objects
// that are used by a locality. It is safe to call each method
// multiple times, but they should not be called concurrently.
type Config interface {
	// Logger returns the configured logger.
	Logger() (*log.Logger, error)

	// Metrics returns the configured metrics client, and a handler
	// that exports its metrics, if any.
	Metrics() (metrics.Client, http.Handler, error)

	// Transport returns the transport through which the locality
	// reaches its peers. A nil transport is valid for single-locality
	// configurations.
	Transport() (locality.Transport, error)

	// Locality returns the configured locality.
	Locality() (*locality.Locality, error)

	// Value returns the value of the given key.
	Value(key string) interface{}

	// Marshal marshals the current configuration into keys.
	Marshal(keys Keys) error

	// Keys returns all the keys as defined by this config.
	Keys() Keys
}

// Base defines a base configuration with reasonable defaults
// where they apply.
type Base Keys

// Logger returns a logger that outputs to standard error.
func (b Base) Logger() (*log.Logger, error) {
	return log.New(golog.New(os.Stderr, "", golog.LstdFlags), log.InfoLevel), nil
}

// Metrics returns the no-op metrics client.
func (b Base) Metrics() (metrics.Client, http.Handler, error) {
	return metrics.NopClient, nil, nil
}

// Transport returns a nil transport.
func (b Base) Transport() (locality.Transport, error) {
	return nil, nil
}

// Locality returns a single locality. Configurations that provision
// a transport override it.
func (b Base) Locality() (*locality.Locality, error) {
	return locality.Single(), nil
}

// Keys returns the configured keys.
func (b Base) Keys() Keys {
	return Keys(b)
}

// Value returns the value for the provided key.
func (b Base) Value(key string) interface{} {
	return b[key]
}

// Marshal populates the provided key dictionary with the keys
// present in this configuration.
func (b Base) Marshal(keys Keys) error {
	for k, v := range b {
		keys[k] = v
	}
	return nil
}

// Int returns the integer value of key in cfg, or def if the key is
// not set.
func Int(cfg Config, key string, def int) (int, error) {
	switch v := cfg.Value(key).(type) {
	case nil:
		return def, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, errors.E("config", key, errors.BadParameter, errors.Errorf("%v is not an integer", v))
		}
		return int(v), nil
	default:
		return 0, errors.E("config", key, errors.BadParameter, errors.Errorf("expected integer, got %T", v))
	}
}

// String returns the string value of key in cfg, or def if the key
// is not set.
func String(cfg Config, key, def string) (string, error) {
	switch v := cfg.Value(key).(type) {
	case nil:
		return def, nil
	case string:
		return v, nil
	default:
		return "", errors.E("config", key, errors.BadParameter, errors.Errorf("expected string, got %T", v))
	}
}

// Strings returns the list of strings stored under key in cfg.
func Strings(cfg Config, key string) ([]string, error) {
	switch v := cfg.Value(key).(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []interface{}:
		s := make([]string, len(v))
		for i, e := range v {
			str, ok := e.(string)
			if !ok {
				return nil, errors.E("config", key, errors.BadParameter, errors.Errorf("element %d: expected string, got %T", i, e))
			}
			s[i] = str
		}
		return s, nil
	default:
		return nil, errors.E("config", key, errors.BadParameter, errors.Errorf("expected list, got %T", v))
	}
}

// Validate checks the plain value keys of cfg for consistency.
func Validate(cfg Config) error {
	peers, err := Strings(cfg, Localities)
	if err != nil {
		return err
	}
	id, err := Int(cfg, LocalityID, 0)
	if err != nil {
		return err
	}
	if count := len(peers); id < 0 || (count > 0 && id >= count) || (count == 0 && id != 0) {
		return errors.E("config", LocalityID, errors.BadParameter,
			errors.Errorf("locality %d out of range for %d localities", id, count))
	}
	for _, key := range []string{FetchLimit, RateLimit} {
		n, err := Int(cfg, key, 0)
		if err != nil {
			return err
		}
		if n < 0 {
			return errors.E("config", key, errors.BadParameter, errors.Errorf("negative value %d", n))
		}
	}
	_, err = String(cfg, Listen, "")
	return err
}

// Unmarshal unmarshals the (YAML-configured) configuration in b into
// keys.
func Unmarshal(b []byte, keys Keys) error {
	return yaml.Unmarshal(b, keys)
}

// Marshal marshals the given keys into YAML-formatted bytes.
func Marshal(cfg Config) ([]byte, error) {
	keys := make(Keys)
	if err := cfg.Marshal(keys); err != nil {
		return nil, err
	}
	return yaml.Marshal(keys)
}

// Make evaluates a config's keys: for each key in AllKeys (and in
// the order defined by AllKeys), Make parses its provider, and
// provisions the key accordingly. Make returns errors if a provider
// cannot be found or if the provider fails to configure the given
// key.
func Make(cfg Config) (Config, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	for _, key := range AllKeys {
		v := cfg.Value(key)
		if v == nil {
			continue
		}
		vstr, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string for key %s, got %T", key, v)
		}
		name, arg := peel(vstr, ",")
		provider, ok := Lookup(key, name)
		if !ok {
			return nil, fmt.Errorf("provider %s not defined for key %s", name, key)
		}
		var err error
		cfg, err = provider.Configure(cfg, arg)
		if err != nil {
			return nil, fmt.Errorf("configuring key %s with provider %s: %v", key, name, err)
		}
	}
	return cfg, nil
}

// Parse parses and provisions a configuration from the
// YAML-formatted bytes b.
func Parse(b []byte) (Config, error) {
	base := make(Base)
	if err := Unmarshal(b, Keys(base)); err != nil {
		return nil, err
	}
	return Make(base)
}

// ParseFile reads and then parses the configuration from the
// provided filename.
func ParseFile(filename string) (Config, error) {
	b, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// A Provider provisions a single key in a configuration. Providers
// must be registered via the package's Register function.
type Provider struct {
	Configure        func(cfg Config, arg string) (Config, error)
	Kind, Arg, Usage string
}

var (
	providers = make(map[string]map[string]Provider)
	mu        sync.Mutex
)

// Register the configuration provider kind for the given key. The
// arg and usage string should describe the provider's argument.
func Register(key, kind, arg, usage string, configure func(Config, string) (Config, error)) {
	mu.Lock()
	defer mu.Unlock()
	kindmap := providers[key]
	if kindmap == nil {
		kindmap = make(map[string]Provider)
		providers[key] = kindmap
	}
	if _, ok := kindmap[kind]; ok {
		panic(fmt.Sprintf("provider %s already registered for key %s", kind, key))
	}
	kindmap[kind] = Provider{
		Configure: configure,
		Kind:      kind,
		Arg:       arg,
		Usage:     usage,
	}
}

// Lookup returns the Provider of kind for key.
func Lookup(key, kind string) (Provider, bool) {
	mu.Lock()
	defer mu.Unlock()
	p, ok := providers[key][kind]
	return p, ok
}

// Usage contains usage information for a provider.
type Usage struct {
	Kind, Arg, Usage string
}

// Help returns Usages, organized by key.
func Help() map[string][]Usage {
	mu.Lock()
	defer mu.Unlock()
	help := make(map[string][]Usage)
	for key, keyProviders := range providers {
		var usages []Usage
		for name, provider := range keyProviders {
			usages = append(usages, Usage{
				Kind:  name,
				Arg:   provider.Arg,
				Usage: provider.Usage,
			})
		}
		help[key] = usages
	}
	return help
}

func peel(s, sep string) (head, tail string) {
	switch parts := strings.SplitN(s, sep, 2); len(parts) {
	case 1:
		return parts[0], ""
	case 2:
		return parts[0], parts[1]
	default:
		panic("bug")
	}
}

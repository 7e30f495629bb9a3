// Package geo maps client addresses to ISO country codes.
package geo

import (
	"fmt"
	"net"
	"os"

	"github.com/oschwald/geoip2-golang"
)

// Unknown is returned whenever a country cannot be determined.
const Unknown = "ZZ"

type Config struct {
	DBPath string
}

func ConfigFromEnv() Config {
	p := os.Getenv("GEOIP_DB_PATH")
	if p == "" {
		p = "resources/GeoLite2-Country.mmdb"
	}
	return Config{DBPath: p}
}

type countryReader interface {
	Country(ip net.IP) (*geoip2.Country, error)
}

// Resolver looks up countries in an immutable GeoLite2-Country database.
// It is safe for concurrent use. A Resolver without a database answers
// Unknown for every address.
type Resolver struct {
	db     countryReader
	closer func() error
}

// Open memory-maps the database at path.
func Open(path string) (*Resolver, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip db: %w", err)
	}
	return &Resolver{db: r, closer: r.Close}, nil
}

// FromBytes builds a resolver over an in-memory database image.
func FromBytes(b []byte) (*Resolver, error) {
	r, err := geoip2.FromBytes(b)
	if err != nil {
		return nil, fmt.Errorf("load geoip db: %w", err)
	}
	return &Resolver{db: r, closer: r.Close}, nil
}

// Country never fails: unparsable addresses, lookup errors and misses all
// yield Unknown.
func (r *Resolver) Country(addr string) string {
	if r == nil || r.db == nil {
		return Unknown
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return Unknown
	}
	rec, err := r.db.Country(ip)
	if err != nil || rec == nil {
		return Unknown
	}
	if rec.Country.IsoCode != "" {
		return rec.Country.IsoCode
	}
	if rec.RegisteredCountry.IsoCode != "" {
		return rec.RegisteredCountry.IsoCode
	}
	return Unknown
}

func (r *Resolver) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer()
}

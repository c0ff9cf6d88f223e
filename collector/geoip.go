package collector

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// MaxMind answers geo lookups from MaxMind GeoIP2/GeoLite2 database
// files. The ASN database is optional; without it the ASN fields of every
// result stay zero.
type MaxMind struct {
	city *geoip2.Reader
	asn  *geoip2.Reader
}

// OpenMaxMind opens the City database at cityPath and, when asnPath is
// non-empty, the ASN database beside it.
func OpenMaxMind(cityPath, asnPath string) (*MaxMind, error) {
	city, err := geoip2.Open(cityPath)
	if err != nil {
		return nil, fmt.Errorf("open city database %q: %w", cityPath, err)
	}

	m := &MaxMind{city: city}
	if asnPath != "" {
		asn, err := geoip2.Open(asnPath)
		if err != nil {
			city.Close()
			return nil, fmt.Errorf("open ASN database %q: %w", asnPath, err)
		}
		m.asn = asn
	}
	return m, nil
}

// Lookup implements GeoLookup.
func (m *MaxMind) Lookup(_ context.Context, ip net.IP) (*GeoInfo, error) {
	record, err := m.city.City(ip)
	if err != nil {
		return nil, fmt.Errorf("city lookup: %w", err)
	}

	// geoip2 reports unknown addresses as empty records rather than
	// errors; an address with no continent is not in the database.
	if record.Continent.Code == "" {
		return nil, nil
	}

	info := &GeoInfo{
		City:        record.City.Names["en"],
		CountryCode: record.Country.IsoCode,
		Continent:   Continent(record.Continent.Code),
		Latitude:    record.Location.Latitude,
		Longitude:   record.Location.Longitude,
	}
	if len(record.Subdivisions) > 0 {
		info.Region = record.Subdivisions[0].IsoCode
	}

	if m.asn != nil {
		asn, err := m.asn.ASN(ip)
		if err != nil {
			return nil, fmt.Errorf("asn lookup: %w", err)
		}
		info.ASN = uint32(asn.AutonomousSystemNumber)
		info.ASName = asn.AutonomousSystemOrganization
	}
	return info, nil
}

// Close releases both database files.
func (m *MaxMind) Close() error {
	err := m.city.Close()
	if m.asn != nil {
		if cerr := m.asn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

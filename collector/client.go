package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Continent is a two-letter continent code as carried by the MaxMind
// databases.
type Continent string

const (
	ContinentAfrica       Continent = "AF"
	ContinentAntarctica   Continent = "AN"
	ContinentAsia         Continent = "AS"
	ContinentEurope       Continent = "EU"
	ContinentNorthAmerica Continent = "NA"
	ContinentOceania      Continent = "OC"
	ContinentSouthAmerica Continent = "SA"
)

// GeoInfo is the location and network-owner data a geo source returns for
// a single address. String fields are empty when the source has no value
// for them.
type GeoInfo struct {
	ASN         uint32
	ASName      string
	City        string
	Region      string
	CountryCode string
	Continent   Continent
	Latitude    float64
	Longitude   float64
}

// GeoLookup resolves a client address against a geo-IP source. A source
// that has no data for the address returns (nil, nil); errors are reserved
// for the source itself failing.
type GeoLookup interface {
	Lookup(ctx context.Context, ip net.IP) (*GeoInfo, error)
}

// ErrNoGeoData is reported when the geo source has no entry for the
// client's address. Context is shared by every report in a batch, so this
// drops the whole batch.
var ErrNoGeoData = errors.New("no geo data for client address")

// UserAgent is the structured identity parsed from a User-Agent header.
// Version parts that could not be determined are empty strings.
type UserAgent struct {
	Family string
	Major  string
	Minor  string
	Patch  string
}

// String renders the identity the way it is logged: the family followed by
// the dotted version triple.
func (ua UserAgent) String() string {
	return fmt.Sprintf("%s %s.%s.%s", ua.Family, ua.Major, ua.Minor, ua.Patch)
}

// UserAgentParser turns a raw User-Agent header value into a UserAgent.
type UserAgentParser interface {
	Parse(raw string) (UserAgent, error)
}

// ClientInfo describes the client that delivered a batch of reports. It is
// resolved once per request and shared by every record in the batch. The
// IP field only ever holds the truncated prefix; the full client address
// never leaves the resolver.
type ClientInfo struct {
	IP            string    `json:"client_ip"`
	UserAgent     string    `json:"client_user_agent"`
	ASN           uint32    `json:"client_asn"`
	ASName        string    `json:"client_asname"`
	City          string    `json:"client_city"`
	Region        string    `json:"client_region"`
	CountryCode   string    `json:"client_country_code"`
	ContinentCode Continent `json:"client_continent_code"`
	Latitude      float64   `json:"client_latitude"`
	Longitude     float64   `json:"client_longitude"`
}

// Resolver builds ClientInfo values from injected geo and user-agent
// sources, so the pipeline can be exercised without live databases.
type Resolver struct {
	Geo        GeoLookup
	UserAgents UserAgentParser
}

// Resolve looks up the client address, parses the User-Agent header (an
// absent header arrives as "", which is not an error), and truncates the
// address to its logging prefix. Any failure here poisons the whole batch:
// the caller gets no ClientInfo and must not emit records.
func (r *Resolver) Resolve(ctx context.Context, ip net.IP, userAgent string) (*ClientInfo, error) {
	geo, err := r.Geo.Lookup(ctx, ip)
	if err != nil {
		return nil, fmt.Errorf("geo lookup: %w", err)
	}
	if geo == nil {
		return nil, ErrNoGeoData
	}

	ua, err := r.UserAgents.Parse(userAgent)
	if err != nil {
		return nil, fmt.Errorf("parse user agent: %w", err)
	}

	prefix, err := TruncateIPToPrefix(ip)
	if err != nil {
		return nil, fmt.Errorf("truncate client address: %w", err)
	}

	return &ClientInfo{
		IP:            prefix,
		UserAgent:     ua.String(),
		ASN:           geo.ASN,
		ASName:        geo.ASName,
		City:          geo.City,
		Region:        geo.Region,
		CountryCode:   geo.CountryCode,
		ContinentCode: geo.Continent,
		Latitude:      geo.Latitude,
		Longitude:     geo.Longitude,
	}, nil
}

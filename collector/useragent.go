package collector

import (
	"fmt"

	"github.com/ua-parser/uap-go/uaparser"
)

// UAParser wraps uap-go's parser behind the UserAgentParser interface.
// Agents the regex set does not recognize come back as family "Other"
// with empty version parts, which is still a valid identity.
type UAParser struct {
	parser *uaparser.Parser
}

// NewUAParser builds a parser from the regex definitions compiled into
// uap-go.
func NewUAParser() *UAParser {
	return &UAParser{parser: uaparser.NewFromSaved()}
}

// NewUAParserFromFile builds a parser from a uap-core regexes.yaml file,
// for deployments that track the regex set separately.
func NewUAParserFromFile(path string) (*UAParser, error) {
	parser, err := uaparser.New(path)
	if err != nil {
		return nil, fmt.Errorf("load user agent regexes %q: %w", path, err)
	}
	return &UAParser{parser: parser}, nil
}

// Parse implements UserAgentParser.
func (p *UAParser) Parse(raw string) (UserAgent, error) {
	ua := p.parser.ParseUserAgent(raw)
	return UserAgent{
		Family: ua.Family,
		Major:  ua.Major,
		Minor:  ua.Minor,
		Patch:  ua.Patch,
	}, nil
}

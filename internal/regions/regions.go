// Package regions holds the static Selling Partner API region table.
// A region code identifies both the AWS region the API is signed against
// and the fixed API base endpoint. The table is configuration data and is
// reproduced verbatim; resolving is a pure lookup with no I/O.
package regions

import (
	"fmt"
	"sort"
	"strings"

	"spapi-bridge/internal/common/errors"
)

// Code is a Selling Partner API region code
type Code string

const (
	// NA is the North America region
	NA Code = "NA"
	// EU is the Europe region
	EU Code = "EU"
	// FE is the Far East region
	FE Code = "FE"
)

// Config is the immutable resolution of a region code
type Config struct {
	Code        Code
	CloudRegion string // AWS region the SP-API endpoint is signed against
	Endpoint    string // SP-API base endpoint
}

var table = map[Code]Config{
	NA: {Code: NA, CloudRegion: "us-east-1", Endpoint: "https://sellingpartnerapi-na.amazon.com"},
	EU: {Code: EU, CloudRegion: "eu-west-1", Endpoint: "https://sellingpartnerapi-eu.amazon.com"},
	FE: {Code: FE, CloudRegion: "us-west-2", Endpoint: "https://sellingpartnerapi-fe.amazon.com"},
}

// Resolve maps a region code string to its Config. Unknown codes fail with
// an invalid argument error naming the valid set.
func Resolve(code string) (Config, error) {
	cfg, ok := table[Code(code)]
	if !ok {
		return Config{}, errors.InvalidArgumentError(fmt.Sprintf(
			"Region Code %s is not valid. Value must be one of [%s]", code, validCodes()))
	}
	return cfg, nil
}

// Valid reports whether code is one of the known region codes
func Valid(code string) bool {
	_, ok := table[Code(code)]
	return ok
}

func validCodes() string {
	codes := make([]string, 0, len(table))
	for code := range table {
		codes = append(codes, string(code))
	}
	sort.Strings(codes)
	return strings.Join(codes, ", ")
}

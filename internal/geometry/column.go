package geometry

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/ewkbhex"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// ColumnToWKT normalizes a raw geometry column value to WKT.
//
// Drivers hand geometry back in different shapes: PostGIS returns hex EWKB,
// MySQL returns a 4 byte SRID prefix followed by WKB, SQLite returns the WKT
// text it was given. Values selected through the dialect's AsText function
// are already WKT and pass through unchanged.
func ColumnToWKT(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return textToWKT(v)
	case []byte:
		if looksTextual(v) {
			return textToWKT(string(v))
		}
		return binaryToWKT(v)
	}
	return "", fmt.Errorf("%w: unsupported column value %T", ErrInvalidGeometry, value)
}

func textToWKT(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if isHex(s) {
		t, err := ewkbhex.Decode(s)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		return marshal(t)
	}
	// EWKT from some drivers carries an SRID=4326; prefix
	if strings.HasPrefix(strings.ToUpper(s), "SRID=") {
		if i := strings.IndexByte(s, ';'); i > 0 {
			s = s[i+1:]
		}
	}
	return tagImplicitZ(s), nil
}

var untaggedHead = regexp.MustCompile(`^([A-Za-z]+)\s*(\(+)\s*([^,()]+)`)

// tagImplicitZ adds the Z tag to WKT whose first position has three ordinates,
// as SQL Server writes it
func tagImplicitZ(s string) string {
	m := untaggedHead.FindStringSubmatch(s)
	if m == nil || len(strings.Fields(m[3])) != 3 {
		return s
	}
	return m[1] + " Z " + strings.TrimLeft(s[len(m[1]):], " \t")
}

func binaryToWKT(b []byte) (string, error) {
	var t geom.T
	var err error
	if t, err = ewkb.Unmarshal(b); err != nil && len(b) > 4 {
		t, err = wkb.Unmarshal(b[4:])
	}
	if err != nil {
		return "", fmt.Errorf("%w: undecodable geometry column: %v", ErrInvalidGeometry, err)
	}
	return wkt.Marshal(t)
}

func looksTextual(b []byte) bool {
	for _, c := range b {
		if c > unicode.MaxASCII || (c < 0x20 && c != '\t' && c != '\n' && c != '\r') {
			return false
		}
	}
	return len(b) > 0
}

func isHex(s string) bool {
	if len(s)%2 != 0 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

package oficio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/goodsign/monday"
)

var ErrInvalidID = errors.New("file name does not start with a memo id")

// idParts is the number of dash separated fields of a memo id, e.g.
// "M1-S01-CE-350-1".
const idParts = 5

// ParseID takes the memo id from the start of a survey file name.
func ParseID(path string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.Split(base, "-")
	if len(parts) < idParts {
		return "", fmt.Errorf("%w: %s", ErrInvalidID, filepath.Base(path))
	}
	for _, p := range parts[:idParts] {
		if p == "" {
			return "", fmt.Errorf("%w: %s", ErrInvalidID, filepath.Base(path))
		}
	}
	return strings.Join(parts[:idParts], "-"), nil
}

// RoadName is the state highway of an id: "M1-S01-CE-350-1" is on CE-350.
func RoadName(id string) string {
	parts := strings.Split(id, "-")
	if len(parts) < 4 {
		return ""
	}
	return "CE-" + parts[3]
}

// JoinSRE lists segments the way the memo text does: "a, b e c".
func JoinSRE(sres []string) string {
	switch len(sres) {
	case 0:
		return ""
	case 1:
		return sres[0]
	}
	return strings.Join(sres[:len(sres)-1], ", ") + " e " + sres[len(sres)-1]
}

// DateLine is the place and date heading of a memo, e.g.
// "Fortaleza, 05 de maio de 2025".
func DateLine(city string, t time.Time) string {
	return city + ", " + monday.Format(t, "02 de January de 2006", monday.LocalePtBR)
}

// DocumentName is the output file name of a memo.
func DocumentName(id string, t DocumentType) string {
	return fmt.Sprintf("Ofício %s - %s.docx", id, t.Title())
}

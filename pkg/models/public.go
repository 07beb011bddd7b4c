package models

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Gobusters/ectolinq"
)

var (
	countyPattern    = regexp.MustCompile(`(?i)([A-Za-z\s]+)\s+County`)
	cityStatePattern = regexp.MustCompile(`(?i)([A-Za-z\s]+),\s*([A-Za-z]{2})\b`)
	zipPattern       = regexp.MustCompile(`\b(\d{2})\d{3}\b`)
)

// PublicRecord is the view of a Record that is safe to return to searchers.
// Names are reduced to initials and the location to a coarse region.
type PublicRecord struct {
	ID          string       `json:"id"`
	RecordRef   string       `json:"record_ref"`
	DisplayName string       `json:"display_name"`
	Age         *int         `json:"age,omitempty"`
	Region      string       `json:"region"`
	Status      RecordStatus `json:"status"`
	ReportedBy  string       `json:"reported_by"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ToPublic builds the masked view of a record
func (r Record) ToPublic() PublicRecord {
	return PublicRecord{
		ID:          r.ID,
		RecordRef:   r.RecordRef,
		DisplayName: MaskName(r.FirstName) + " " + MaskName(r.LastName),
		Age:         r.Age,
		Region:      ExtractRegion(r.Location),
		Status:      r.Status,
		ReportedBy:  r.ReportedBy,
		UpdatedAt:   r.CreatedAt,
	}
}

// ToPublicRecords maps a slice of records to their masked views
func ToPublicRecords(records []Record) []PublicRecord {
	return ectolinq.Default(ectolinq.Map(records, Record.ToPublic), []PublicRecord{})
}

// MaskName keeps the uppercased first letter of a name, e.g. "jane" -> "J***"
func MaskName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "X***"
	}
	first, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + "***"
}

// ExtractRegion derives a coarse region from a free-text location
func ExtractRegion(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return "Unknown region"
	}

	if m := countyPattern.FindStringSubmatch(location); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name + " County"
		}
	}

	if m := cityStatePattern.FindStringSubmatch(location); m != nil {
		if city := strings.TrimSpace(m[1]); city != "" {
			return city + " area"
		}
	}

	if m := zipPattern.FindStringSubmatch(location); m != nil {
		return "ZIP " + m[1] + "xxx area"
	}

	first := strings.TrimSpace(strings.Split(location, ",")[0])
	if first == "" {
		return "Unknown region"
	}
	return first
}

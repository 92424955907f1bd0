package enums

import "fmt"

// ArchiveItemType identifies what a soft-deleted archive entry points at.
type ArchiveItemType string

const (
	ArchiveItemTypeOrder ArchiveItemType = "order"
	ArchiveItemTypePDF   ArchiveItemType = "pdf"
)

var validArchiveItemTypes = []ArchiveItemType{
	ArchiveItemTypeOrder,
	ArchiveItemTypePDF,
}

// String implements fmt.Stringer.
func (a ArchiveItemType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ArchiveItemType.
func (a ArchiveItemType) IsValid() bool {
	for _, candidate := range validArchiveItemTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseArchiveItemType converts raw input into an ArchiveItemType.
func ParseArchiveItemType(value string) (ArchiveItemType, error) {
	for _, candidate := range validArchiveItemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid archive item type %q", value)
}

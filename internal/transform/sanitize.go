package transform

import (
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"
)

// SanitizeComment strips everything Glue's free-text pattern rejects:
// invalid UTF-8 and any rune outside tab, U+0020-U+D7FF, U+E000-U+FFFD and
// the supplementary planes.
func SanitizeComment(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r == utf8.RuneError && size == 1 {
			continue
		}
		if allowedInComment(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allowedInComment(r rune) bool {
	switch {
	case r == '\t':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= utf8.MaxRune:
		return true
	default:
		return false
	}
}

// SanitizeTableInput returns a copy of in with column and partition-key
// comments sanitized, and whether any comment changed. in is not modified.
func SanitizeTableInput(in *types.TableInput) (*types.TableInput, bool) {
	out := *in
	var changed, sdChanged bool
	out.PartitionKeys, changed = sanitizeColumns(in.PartitionKeys)
	out.StorageDescriptor, sdChanged = sanitizeStorageDescriptor(in.StorageDescriptor)
	return &out, changed || sdChanged
}

// SanitizePartitionInput is SanitizeTableInput for partitions.
func SanitizePartitionInput(in *types.PartitionInput) (*types.PartitionInput, bool) {
	out := *in
	var changed bool
	out.StorageDescriptor, changed = sanitizeStorageDescriptor(in.StorageDescriptor)
	return &out, changed
}

func sanitizeStorageDescriptor(sd *types.StorageDescriptor) (*types.StorageDescriptor, bool) {
	if sd == nil {
		return nil, false
	}
	out := *sd
	var changed bool
	out.Columns, changed = sanitizeColumns(sd.Columns)
	return &out, changed
}

func sanitizeColumns(cols []types.Column) ([]types.Column, bool) {
	if cols == nil {
		return nil, false
	}
	out := make([]types.Column, len(cols))
	changed := false
	for i, c := range cols {
		out[i] = c
		if c.Comment == nil {
			continue
		}
		if clean := SanitizeComment(*c.Comment); clean != *c.Comment {
			out[i].Comment = aws.String(clean)
			changed = true
		}
	}
	return out, changed
}

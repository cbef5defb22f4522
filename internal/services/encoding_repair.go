package services

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// RepairLegacyEncoding undoes text that was UTF-8 on the publisher's side but
// got decoded as Windows-1252 ("RÃ©gion" back to "Région"). Plain ASCII comes
// back unchanged. Text that cannot be mapped back to valid UTF-8 fails with
// ErrEncodingRepair.
func RepairLegacyEncoding(text string) (string, error) {
	encoded, err := charmap.Windows1252.NewEncoder().String(text)
	if err != nil {
		return "", fmt.Errorf("%w: encode %q: %v", ErrEncodingRepair, text, err)
	}
	if !utf8.ValidString(encoded) {
		return "", fmt.Errorf("%w: %q is not valid utf-8 after re-encoding", ErrEncodingRepair, text)
	}
	return encoded, nil
}

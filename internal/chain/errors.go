package chain

import "fmt"

// LinkError reports a break in the backward hash chain: the entry's embedded
// previous link does not equal the digest of its predecessor's content.
type LinkError struct {
	Filename string
	Expected string
	Found    string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("chain broken at entry %s: expected previous %s, found %s",
		e.Filename, e.Expected, e.Found)
}

// HashError reports an entry whose content no longer hashes to the short
// hash embedded in its filename.
type HashError struct {
	Filename string
	Computed string
	Claimed  string
}

func (e *HashError) Error() string {
	return fmt.Sprintf("hash mismatch at %s: content hashes to %s, filename claims %s",
		e.Filename, e.Computed, e.Claimed)
}

// MissingPreviousError reports an entry with no decodable Previous field.
type MissingPreviousError struct {
	Filename string
}

func (e *MissingPreviousError) Error() string {
	return fmt.Sprintf("missing Previous line in %s", e.Filename)
}

package chain

// NextSequence determines the sequence number for the next entry from the
// names already present in the worklog directory. Non-entry names are
// ignored. The result is computed as max+1, so it does not depend on the
// order the file system yields names in, and gaps in the history never cause
// a number to be reused.
func NextSequence(names []string) int {
	max := 0
	for _, name := range names {
		seq, _, ok := ParseFilename(name)
		if !ok {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max + 1
}

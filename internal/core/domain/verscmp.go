package domain

// CompareVersions orders two library filenames the way glibc's
// _dl_cache_libcmp does: the names are walked in parallel, runs of digits
// are compared numerically and everything else bytewise. It returns a
// negative value when a sorts before b, zero when equal, positive otherwise.
//
// "libfoo.so.10" compares greater than "libfoo.so.9" even though it sorts
// lexically smaller.
func CompareVersions(a, b string) int {
	ia, ib := 0, 0
	for ia < len(a) && ib < len(b) {
		ca, cb := a[ia], b[ib]
		if isDigit(ca) && isDigit(cb) {
			na, va := digitRun(a, ia)
			nb, vb := digitRun(b, ib)
			if va != vb {
				if va < vb {
					return -1
				}
				return 1
			}
			ia, ib = na, nb
			continue
		}
		if ca != cb {
			return int(ca) - int(cb)
		}
		ia++
		ib++
	}
	switch {
	case ia < len(a):
		return 1
	case ib < len(b):
		return -1
	}
	return 0
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// digitRun consumes the digit run starting at i and returns the index past
// it together with the numeric value.
func digitRun(s string, i int) (int, uint64) {
	var v uint64
	for i < len(s) && isDigit(s[i]) {
		v = v*10 + uint64(s[i]-'0')
		i++
	}
	return i, v
}

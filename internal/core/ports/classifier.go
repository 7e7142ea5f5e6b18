package ports

import "github.com/lu-zero/ldconfig/internal/core/domain"

// Classifier inspects one candidate file and determines its architecture
// flag and advertised name.
//
// A nil candidate with a nil error means the file is not a cacheable shared
// object (not a regular file, unreadable, wrong magic, unsupported machine);
// scans must skip such files and continue.
type Classifier interface {
	Classify(path string) (*domain.CandidateLibrary, error)
}

package upload

// FileSet is a name-keyed set of pending uploads. With a limit of one a new
// file replaces the previous selection; otherwise files with an already
// selected name are ignored.
type FileSet struct {
	limit int
	order []string
	files map[string]File
}

// NewFileSet creates a set; limit <= 0 means unbounded.
func NewFileSet(limit int) *FileSet {
	return &FileSet{limit: limit, files: make(map[string]File)}
}

// Add inserts a file and reports whether the set changed.
func (s *FileSet) Add(f File) bool {
	if s.limit == 1 {
		s.Clear()
	} else if _, dup := s.files[f.Name]; dup {
		return false
	} else if s.limit > 1 && len(s.order) >= s.limit {
		return false
	}
	s.files[f.Name] = f
	s.order = append(s.order, f.Name)
	return true
}

// Remove deletes a file by name.
func (s *FileSet) Remove(name string) bool {
	if _, ok := s.files[name]; !ok {
		return false
	}
	delete(s.files, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *FileSet) Len() int { return len(s.order) }

// Multiple is false for single-file sets.
func (s *FileSet) Multiple() bool { return s.limit != 1 }

// Files returns the files in selection order.
func (s *FileSet) Files() []File {
	out := make([]File, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.files[n])
	}
	return out
}

func (s *FileSet) Names() []string {
	return append([]string(nil), s.order...)
}

func (s *FileSet) Clear() {
	s.order = nil
	s.files = make(map[string]File)
}

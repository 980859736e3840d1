package upload

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
	"github.com/bryanwahyu/compliance-dashboard/internal/format"
)

// Mode selects which documents a form collects.
type Mode string

const (
	// ModeSingle is the setup flow: the PSSI only, the norm is fixed.
	ModeSingle Mode = "single"
	// ModePair is the generic flow: a norm and a PSSI.
	ModePair Mode = "pair"
)

const (
	FieldNorm = "norm"
	FieldPSSI = "pssi"

	Placeholder = "Drag & drop your file here or click to browse"
	// DefaultNorm is the framework used by the setup flow.
	DefaultNorm = "guide_hygiene_informatique_anssi.pdf"
)

// Slot is one upload box.
type Slot struct {
	Field string
	Title string
	Files *FileSet
}

// Selected drives the "selected" styling of the box.
func (s *Slot) Selected() bool { return s.Files.Len() > 0 }

// Multiple reports whether the box accepts several files.
func (s *Slot) Multiple() bool { return s.Files.Multiple() }

// Label is the text shown in the box.
func (s *Slot) Label() string {
	names := s.Files.Names()
	if len(names) == 0 {
		return Placeholder
	}
	return strings.Join(names, ", ")
}

// Form is the upload form view-model. It is owned by a single request or
// terminal session and is not safe for concurrent use.
type Form struct {
	Mode     Mode
	NormName string
	Slots    []*Slot
	Error    string
	Busy     bool
}

func NewForm(mode Mode) *Form {
	f := &Form{Mode: mode}
	switch mode {
	case ModePair:
		f.Slots = []*Slot{
			{Field: FieldNorm, Title: "Regulatory framework (norm)", Files: NewFileSet(1)},
			{Field: FieldPSSI, Title: "Security policy documents (PSSI)", Files: NewFileSet(0)},
		}
	default:
		f.Mode = ModeSingle
		f.NormName = DefaultNorm
		f.Slots = []*Slot{
			{Field: FieldPSSI, Title: "Security policy (PSSI)", Files: NewFileSet(1)},
		}
	}
	return f
}

// Slot returns the slot for a multipart field, or nil.
func (f *Form) Slot(field string) *Slot {
	for _, s := range f.Slots {
		if s.Field == field {
			return s
		}
	}
	return nil
}

// Select adds a file to a slot.
func (f *Form) Select(field string, file File) error {
	s := f.Slot(field)
	if s == nil {
		return fmt.Errorf("unknown upload field: %s", field)
	}
	if strings.TrimSpace(file.Name) == "" {
		return fmt.Errorf("%w: %s", analysis.ErrMissingFile, field)
	}
	s.Files.Add(file)
	return nil
}

// Remove drops a file from a slot.
func (f *Form) Remove(field, name string) bool {
	s := f.Slot(field)
	if s == nil {
		return false
	}
	return s.Files.Remove(name)
}

// CanSubmit is true only when every required slot holds a file.
func (f *Form) CanSubmit() bool {
	if f.Busy {
		return false
	}
	for _, s := range f.Slots {
		if !s.Selected() {
			return false
		}
	}
	return true
}

// Documents returns the multipart parts to send, one per selected file,
// slots in order.
func (f *Form) Documents() ([]analysis.Document, error) {
	docs := make([]analysis.Document, 0, len(f.Slots))
	for _, s := range f.Slots {
		if s.Files.Len() == 0 {
			return nil, fmt.Errorf("%w: please upload your %s document", analysis.ErrMissingFile, strings.ToUpper(s.Field))
		}
		for _, file := range s.Files.Files() {
			docs = append(docs, analysis.Document{Field: s.Field, Filename: file.Name, Data: file.Data})
		}
	}
	return docs, nil
}

// Begin marks the form busy for the duration of a submit.
func (f *Form) Begin() {
	f.Busy = true
	f.Error = ""
}

// Fail surfaces an error and re-enables the form, keeping its files.
func (f *Form) Fail(err error) {
	f.Busy = false
	if err != nil {
		f.Error = err.Error()
	}
}

// Reset clears every slot after a successful submit.
func (f *Form) Reset() {
	f.Busy = false
	f.Error = ""
	for _, s := range f.Slots {
		s.Files.Clear()
	}
}

// File is a selected upload.
type File struct {
	Name string
	Size int64
	Data []byte
}

// SizeLabel renders the file size for the preview list.
func (f File) SizeLabel() string { return format.FileSize(f.Size) }

package workflow

// SectionResult is one report section's final text. An empty Text means the
// model produced no answer for that section.
type SectionResult struct {
	Section string
	Text    string
}

// Report maps report sections to their final texts, in workflow order.
// It is immutable once returned to a presenter.
type Report struct {
	Sections []SectionResult
}

// Get returns the text for a section and whether the section is present.
func (r Report) Get(section string) (string, bool) {
	for _, s := range r.Sections {
		if s.Section == section {
			return s.Text, true
		}
	}
	return "", false
}

// Missing returns the sections that are present but carry no answer.
func (r Report) Missing() []string {
	var out []string
	for _, s := range r.Sections {
		if s.Text == "" {
			out = append(out, s.Section)
		}
	}
	return out
}

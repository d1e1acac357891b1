package bundle

import "errors"

// ErrSelectionConsumed is returned when the downloaded set is read twice.
var ErrSelectionConsumed = errors.New("downloaded roles already consumed")

// Selection is the per-run choice: the bundle picked by the user and the
// roles actually downloaded for it.
type Selection struct {
	variant    Variant
	bundle     *Bundle
	downloaded RoleSet
	consumed   bool
}

// NewSelection fixes the chosen bundle for the rest of the run.
func NewSelection(v Variant, b *Bundle) *Selection {
	return &Selection{variant: v, bundle: b}
}

// Variant returns the chosen variant.
func (s *Selection) Variant() Variant {
	return s.variant
}

// Bundle returns the chosen bundle.
func (s *Selection) Bundle() *Bundle {
	return s.bundle
}

// MarkDownloaded records that role r was fetched. The set only grows.
func (s *Selection) MarkDownloaded(r Role) {
	s.downloaded = s.downloaded.Add(r)
}

// Downloaded hands the downloaded set to the install phase. It can be called once.
func (s *Selection) Downloaded() (RoleSet, error) {
	if s.consumed {
		return 0, ErrSelectionConsumed
	}

	s.consumed = true

	return s.downloaded, nil
}

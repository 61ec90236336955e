package texfmt

import "iter"

// ExportIter exports one row per value source produced by seq, stopping at
// the first error.
func (s *Session) ExportIter(id string, seq iter.Seq[ValueSource]) error {
	var exportErr error
	seq(func(row ValueSource) bool {
		if err := s.ExportRow(id, row); err != nil {
			exportErr = err
			return false
		}
		return true
	})
	return exportErr
}

// ExportChan exports one row per value source received from ch until ch is
// closed or a row fails. It is a thin wrapper around [Session.ExportIter].
// On error the channel is not drained.
func (s *Session) ExportChan(id string, ch <-chan ValueSource) error {
	return s.ExportIter(id, chanToIter(ch))
}

func chanToIter[T any](ch <-chan T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for item := range ch {
			if !yield(item) {
				return
			}
		}
	}
}

package compose

// SetPick overrides the random topic selector. Test-only.
func (s *Service) SetPick(f func(n int) int) {
	s.pick = f
}

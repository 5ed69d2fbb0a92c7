package voting

// Principal is the authenticated caller as supplied by the external
// identity provider. The core performs no eligibility computation of its
// own - CanVote is trusted as given.
type Principal struct {
	ID        string
	Name      string
	MemberRef string
	Phone     string
	CanVote   bool
	Admin     bool
}

// IsAdministrator is the explicit permission guard called at the top of
// administrator-only operations.
func (p Principal) IsAdministrator() bool {
	return p.Admin
}

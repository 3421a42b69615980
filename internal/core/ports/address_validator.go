package ports

// AddressValidator is the pure predicate deciding whether a bare address is a
// self-describing combined address+identifier (integrated address). The
// address-format rules themselves live outside the settlement core.
type AddressValidator interface {
	IsIntegrated(address string) bool
}

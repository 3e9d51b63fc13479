package service

// AssetMatcher picks the best candidate for a probe string.
// Implementations must be deterministic for fixed inputs and break ties by
// candidate order.
type AssetMatcher interface {
	Match(probe string, candidates []string) (match string, score float64, ok bool)
}

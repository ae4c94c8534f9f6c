package redis

const (
	// KeyCatalogSnapshot holds the last successfully fetched catalog as JSON
	KeyCatalogSnapshot = "bagbuilder:catalog:snapshot"
	// KeyCatalogUpdatedAt holds the RFC3339 time of the snapshot
	KeyCatalogUpdatedAt = "bagbuilder:catalog:updated_at"
	// KeyPrefixRecommendations is the prefix for per-user recommendation keys
	KeyPrefixRecommendations = "bagbuilder:recs:"
)

// RecommendationsKey returns the Redis key for a user's last recommendations
func RecommendationsKey(userID string) string {
	return KeyPrefixRecommendations + userID
}

package platform

// NewPlatform creates the platform implementation.
// Launchlet targets Linux batch clusters, so no OS detection is needed.
func NewPlatform() Platform {
	return NewBasePlatform()
}

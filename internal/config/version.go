package config

// Version is the GhorBari binary version.
// Set at build time via: -ldflags "-X github.com/ghorbari/ghorbari/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"

package instance

import (
	"os"

	"github.com/angelmondragon/autoimport-storefront/pkg/env"
)

const defaultID = "storefront-0"

// GetID returns the identifier of this storefront process. An explicit
// STOREFRONT_INSTANCE_ID wins, then the platform dyno name, then the host name.
func GetID() string {
	if id := env.First("", "STOREFRONT_INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return defaultID
}

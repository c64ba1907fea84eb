package instance

import "github.com/angelmondragon/petfood-backend/pkg/env"

// GetID returns an identifier for this process, used in logs and lock
// ownership. PETFOOD_INSTANCE_ID wins, then the platform's dyno or host name.
func GetID() string {
	return env.First("local", "PETFOOD_INSTANCE_ID", "DYNO", "HOSTNAME")
}

package sensor

import (
	"time"

	"github.com/sweeney/sprinkler/internal/store"
)

// FromOptions builds the sensor configuration from the integer options.
// Delays are stored in minutes.
func FromOptions(o *store.IntOptions) [Count]Config {
	mins := func(id store.IntOption) time.Duration {
		return time.Duration(o.Get(id)) * time.Minute
	}
	return [Count]Config{
		{
			Type:      Type(o.Get(store.OptSensor1Type)),
			IdleLevel: o.Get(store.OptSensor1Option) != 0,
			OnDelay:   mins(store.OptSensor1OnDelay),
			OffDelay:  mins(store.OptSensor1OffDelay),
		},
		{
			Type:      Type(o.Get(store.OptSensor2Type)),
			IdleLevel: o.Get(store.OptSensor2Option) != 0,
			OnDelay:   mins(store.OptSensor2OnDelay),
			OffDelay:  mins(store.OptSensor2OffDelay),
		},
	}
}

package realtime

import "time"

const (
	maxFrameBytes = 512 * 1024

	defaultSendQueueSize = 256
	minSendQueueSize     = 32

	defaultDialTimeout  = 10 * time.Second
	defaultWriteTimeout = 5 * time.Second
	defaultReadIdle     = 2 * time.Minute

	heartbeatInterval = 30 * time.Second
	heartbeatTimeout  = 10 * time.Second
	maxPingFailures   = 3

	reconnectInitialInterval = 1 * time.Second
	reconnectMaxInterval     = 1 * time.Minute
)

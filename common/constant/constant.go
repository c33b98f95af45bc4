package constant

import "time"

// scan defaults
const (
	COLLECT_TIMEOUT time.Duration = 2 * time.Second
	CHANNEL_SIZE    int           = 4096
)

// pcap link
const (
	SNAPLEN           int32         = 65535
	READ_TIMEOUT      time.Duration = 100 * time.Millisecond
	BPF_FILTER        string        = "arp"
	LINK_OPEN_TIMES   int           = 3
	LINK_OPEN_BACKOFF time.Duration = 500 * time.Millisecond
)

// log level env
const (
	LOG_LEVEL_ENV string = "ARPSCAN_LOG_LEVEL"
	LOG_LEVEL_DEV string = "development"
	LOG_LEVEL_PRD string = "production"
)

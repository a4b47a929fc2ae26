package output

import "time"

type MetricsPort interface {
	ObserveRouting(agent, source string)
	ObserveExecution(agent, status string, duration time.Duration)
}

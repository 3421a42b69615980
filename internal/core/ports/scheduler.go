package ports

// SchedulerService schedules settlement runs. The service guarantees mutual
// exclusion between runs by re-arming the next one only after the current one
// fully settled.
type SchedulerService interface {
	Start()
	Stop()
	// ScheduleTaskOnce runs the task once at the given unix time.
	ScheduleTaskOnce(at int64, task func()) error
	// AddNow returns the unix time delta seconds from now.
	AddNow(delta int64) int64
}

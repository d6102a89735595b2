package model

// Schedule is a row of the `screening_schedules` table: one actor appearing
// at a screening of one movie, at a given time and (optionally) place.
type Schedule struct {
	ID       int64    `json:"id"`
	MovieID  int64    `json:"movieId"`
	ActorID  int64    `json:"actorId"`
	StartsAt DateTime `json:"startsAt"`
	Location *string  `json:"location"`
}

// ScheduleDetail is the read-only projection returned by GET /schedules.  It
// inlines the referenced movie and actor; nothing of the join is persisted.
type ScheduleDetail struct {
	Schedule
	MovieTitle string `json:"movieTitle"`
	ActorName  string `json:"actorName"`
	Movie      *Movie `json:"movie"`
	Actor      *Actor `json:"actor"`
}

// ScheduleInput is the body of POST /schedules and PUT /schedules/{id}.
type ScheduleInput struct {
	MovieID  int64    `json:"movieId"`
	ActorID  int64    `json:"actorId"`
	StartsAt DateTime `json:"startsAt"`
	Location *string  `json:"location"`
}

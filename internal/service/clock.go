package service

import "time"

// Clock источник текущего времени
type Clock interface {
	Now() time.Time
}

// SystemClock возвращает системное время
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

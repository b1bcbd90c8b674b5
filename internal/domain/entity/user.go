package entity

import "time"

// User is an organizational directory record. The engine only reads these;
// the directory itself is maintained elsewhere.
type User struct {
	ID        string
	Name      string
	DeptCode  string
	JobLevel  string
	Role      Role
	CreatedAt time.Time
}

// IsEntryLevel reports whether the user is at the lowest seniority level
func (u *User) IsEntryLevel() bool {
	return u.JobLevel == JobLevelEntry
}

// LeaveBalance tracks a user's leave-day account. Days are fractional to
// allow half-day applications.
type LeaveBalance struct {
	UserID    string
	TotalDays float64
	UsedDays  float64
	UpdatedAt time.Time
}

// RemainingDays returns the days still available
func (b *LeaveBalance) RemainingDays() float64 {
	return b.TotalDays - b.UsedDays
}
